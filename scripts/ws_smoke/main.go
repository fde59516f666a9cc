package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/lobbychat/internal/proto"
)

type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3000/ws", "WebSocket address")
	user := flag.String("user", "tester", "username to register")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(typ string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
			return fmt.Errorf("send %s: %w", typ, err)
		}
		return nil
	}

	if err := send(proto.InboundTypeRegister, proto.RegisterData{Username: *user}); err != nil {
		return err
	}

	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		if f.Type == proto.OutboundTypeError && f.Error != nil {
			return fmt.Errorf("server error %s: %s", f.Error.Code, f.Error.Msg)
		}
		fmt.Printf("Received: type=%s event=%s\n", f.Type, f.Event)

		switch f.Event {
		case proto.EventUsernameTaken:
			return fmt.Errorf("username %q is taken", *user)
		case proto.EventBanned:
			return fmt.Errorf("username %q is banned", *user)
		case proto.EventRegistered:
			var u proto.User
			if err := json.Unmarshal(f.Data, &u); err != nil {
				return fmt.Errorf("unmarshal registered: %w", err)
			}
			fmt.Printf("Registered: user=%s session=%s admin=%t\n", u.Username, u.SessionID, u.IsAdmin)
			if err := send(proto.InboundTypeSendMessage, proto.SendMessageData{Type: "text", Content: *text}); err != nil {
				return err
			}
		case proto.EventNewMessage:
			var msg proto.Message
			if err := json.Unmarshal(f.Data, &msg); err != nil {
				fmt.Printf("Raw data: %s\n", string(f.Data))
				return fmt.Errorf("unmarshal message: %w", err)
			}
			if msg.Username != *user {
				continue
			}
			fmt.Printf("Message: id=%s user=%s content=%q ts=%s\n", msg.ID, msg.Username, msg.Content, msg.Timestamp.Format(time.RFC3339))
			return nil
		}
	}
}
