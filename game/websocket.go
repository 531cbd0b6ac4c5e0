package game

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = time.Minute
	maxMessageBytes = 4096
)

type WebsocketConnection interface {
	Close(code string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

type gorillaConnection struct {
	socket *websocket.Conn
}

func (gc *gorillaConnection) Write(data []byte) error {
	gc.socket.SetWriteDeadline(time.Now().Add(writeWait))
	return gc.socket.WriteMessage(websocket.TextMessage, data)
}

func (gc *gorillaConnection) Ping() error {
	return gc.socket.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (gc *gorillaConnection) Read() ([]byte, error) {
	_, p, err := gc.socket.ReadMessage()
	return p, err
}

func (gc *gorillaConnection) Close(code string) {
	gc.socket.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, code), time.Now().Add(writeWait))
	gc.socket.Close()
}

func NewGorillaWebsocketConnection(conn *websocket.Conn) *gorillaConnection {
	conn.SetReadLimit(maxMessageBytes)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	return &gorillaConnection{conn}
}
