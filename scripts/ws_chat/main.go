package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

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

const help = `Commands:
  /react <id> <emoji>   toggle a reaction
  /edit <id> <text>     edit your message
  /delete <id>          delete a message
  /status <text>        set your status
  /avatar <url>         set your avatar
  /ban <user>           ban a user (admin)
  /unban <user>         lift a ban (admin)
  /bans                 list bans (admin)
  /clear                clear the chat (admin)
Anything else is sent as a message; @name mentions that user.`

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3000/ws", "WebSocket address")
	user := flag.String("user", "cli-user", "username")
	session := flag.String("session", "", "session token to resume")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := send(ctx, conn, proto.InboundTypeRegister, proto.RegisterData{Username: *user, SessionID: *session}); err != nil {
		return err
	}

	fmt.Printf("Connected to %s as %s\n", *addr, *user)
	fmt.Println("Type messages and press Enter to send. /help lists commands. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func send(ctx context.Context, conn *websocket.Conn, typ string, data any) error {
	var payload json.RawMessage
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		payload = raw
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			case websocket.StatusPolicyViolation:
				fmt.Println("disconnected by server")
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		if f.Type == proto.OutboundTypeError && f.Error != nil {
			fmt.Printf("! %s: %s\n", f.Error.Code, f.Error.Msg)
			continue
		}
		printEvent(f)
	}
}

func printEvent(f frame) {
	switch f.Event {
	case proto.EventRegistered:
		var u proto.User
		if json.Unmarshal(f.Data, &u) == nil {
			fmt.Printf("registered as %s (session %s)\n", u.Username, u.SessionID)
		}
	case proto.EventMessageHistory:
		var msgs []proto.Message
		if json.Unmarshal(f.Data, &msgs) == nil {
			for _, m := range msgs {
				printMessage(m)
			}
		}
	case proto.EventNewMessage:
		var m proto.Message
		if json.Unmarshal(f.Data, &m) == nil {
			printMessage(m)
		}
	case proto.EventMentioned:
		var m proto.MentionedData
		if json.Unmarshal(f.Data, &m) == nil {
			fmt.Printf("** %s mentioned you\n", m.By)
		}
	case proto.EventUserJoined, proto.EventUserLeft, proto.EventUserBanned:
		var u proto.EventUser
		if json.Unmarshal(f.Data, &u) == nil {
			fmt.Printf("-- %s: %s\n", f.Event, u.Username)
		}
	case proto.EventBanned:
		var n proto.EventNotice
		if json.Unmarshal(f.Data, &n) == nil {
			fmt.Printf("!! %s\n", n.Message)
		}
	case proto.EventTypingUsers, proto.EventOnlineUsers:
		// too chatty for a terminal
	default:
		fmt.Printf("event=%s data=%s\n", f.Event, string(f.Data))
	}
}

func printMessage(m proto.Message) {
	suffix := ""
	if m.Edited {
		suffix = " (edited)"
	}
	if m.Type == "file" {
		fmt.Printf("[%s] %s sent file %s (%d bytes)%s\n", m.ID, m.Username, m.FileName, m.FileSize, suffix)
		return
	}
	fmt.Printf("[%s] %s: %s%s\n", m.ID, m.Username, m.Content, suffix)
}

func writeLoop(ctx context.Context, conn *websocket.Conn) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if text == "/help" {
				fmt.Println(help)
				continue
			}

			typ, data, err := parseLine(text)
			if err != nil {
				fmt.Println(err)
				continue
			}
			if err := send(ctx, conn, typ, data); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}

func parseLine(text string) (string, any, error) {
	if !strings.HasPrefix(text, "/") {
		return proto.InboundTypeSendMessage, proto.SendMessageData{
			Type:     "text",
			Content:  text,
			Mentions: mentions(text),
		}, nil
	}

	cmd, rest, _ := strings.Cut(text[1:], " ")
	rest = strings.TrimSpace(rest)
	switch cmd {
	case "react":
		id, emoji, ok := strings.Cut(rest, " ")
		if !ok {
			return "", nil, errors.New("usage: /react <id> <emoji>")
		}
		return proto.InboundTypeReactMessage, proto.ReactData{MessageID: id, Emoji: strings.TrimSpace(emoji)}, nil
	case "edit":
		id, content, ok := strings.Cut(rest, " ")
		if !ok {
			return "", nil, errors.New("usage: /edit <id> <text>")
		}
		return proto.InboundTypeEditMessage, proto.EditData{MessageID: id, NewContent: content}, nil
	case "delete":
		return proto.InboundTypeDeleteMessage, proto.MessageRef{MessageID: rest}, nil
	case "status":
		return proto.InboundTypeUpdateStatus, proto.StatusData{Status: rest}, nil
	case "avatar":
		return proto.InboundTypeUpdateAvatar, proto.AvatarData{Avatar: rest}, nil
	case "ban":
		return proto.InboundTypeBanUser, proto.TargetData{Username: rest}, nil
	case "unban":
		return proto.InboundTypeUnbanUser, proto.TargetData{Username: rest}, nil
	case "bans":
		return proto.InboundTypeGetBannedUsers, struct{}{}, nil
	case "clear":
		return proto.InboundTypeClearChat, struct{}{}, nil
	default:
		return "", nil, fmt.Errorf("unknown command /%s, try /help", cmd)
	}
}

func mentions(text string) []string {
	var names []string
	for _, word := range strings.Fields(text) {
		if name, ok := strings.CutPrefix(word, "@"); ok {
			name = strings.TrimRight(name, ".,!?:;")
			if name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}
