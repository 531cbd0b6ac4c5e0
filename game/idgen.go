package game

import "github.com/google/uuid"

type UniqueIdGenerator interface {
	Generate() string
}

type Idgen struct{}

func (Idgen) Generate() string {
	return uuid.NewString()
}

func NewIdGen() Idgen {
	return Idgen{}
}
