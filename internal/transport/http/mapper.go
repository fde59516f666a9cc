package http

import (
	"encoding/json"
	"strings"

	"github.com/vovakirdan/lobbychat/internal/core"
	"github.com/vovakirdan/lobbychat/internal/proto"
	"github.com/vovakirdan/lobbychat/internal/store"
)

// inboundToCommand validates a frame and turns it into a hub command.
// A non-nil *proto.Error is reported to the client; a non-nil error closes the connection.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeRegister:
		var reg proto.RegisterData
		if protoErr := decode(inbound.Data, &reg); protoErr != nil {
			return nil, protoErr, nil
		}
		return &core.Command{
			Kind:      core.CommandRegister,
			Username:  reg.Username,
			Avatar:    reg.Avatar,
			SessionID: reg.SessionID,
		}, nil, nil

	case proto.InboundTypeSendMessage:
		var msg proto.SendMessageData
		if protoErr := decode(inbound.Data, &msg); protoErr != nil {
			return nil, protoErr, nil
		}
		kind := store.MessageKind(msg.Type)
		switch kind {
		case "":
			kind = store.MessageKindText
		case store.MessageKindText, store.MessageKindFile:
		default:
			return nil, badRequest("type must be text or file"), nil
		}
		if strings.TrimSpace(msg.Content) == "" {
			return nil, badRequest("content is required"), nil
		}
		if kind == store.MessageKindFile && msg.FileName == "" {
			return nil, badRequest("fileName is required for file messages"), nil
		}
		return &core.Command{
			Kind: core.CommandSendMessage,
			Draft: core.Draft{
				Kind:     kind,
				Content:  msg.Content,
				FileName: msg.FileName,
				FileSize: msg.FileSize,
				ReplyTo:  msg.ReplyTo,
				Mentions: msg.Mentions,
			},
		}, nil, nil

	case proto.InboundTypeTyping:
		var typing bool
		if protoErr := decode(inbound.Data, &typing); protoErr != nil {
			return nil, protoErr, nil
		}
		return &core.Command{Kind: core.CommandTyping, Typing: typing}, nil, nil

	case proto.InboundTypeReactMessage:
		var react proto.ReactData
		if protoErr := decode(inbound.Data, &react); protoErr != nil {
			return nil, protoErr, nil
		}
		if react.MessageID == "" || react.Emoji == "" {
			return nil, badRequest("messageId and emoji are required"), nil
		}
		return &core.Command{Kind: core.CommandReact, MessageID: react.MessageID, Emoji: react.Emoji}, nil, nil

	case proto.InboundTypeDeleteMessage:
		var ref proto.MessageRef
		if protoErr := decode(inbound.Data, &ref); protoErr != nil {
			return nil, protoErr, nil
		}
		if ref.MessageID == "" {
			return nil, badRequest("messageId is required"), nil
		}
		return &core.Command{Kind: core.CommandDeleteMessage, MessageID: ref.MessageID}, nil, nil

	case proto.InboundTypeEditMessage:
		var edit proto.EditData
		if protoErr := decode(inbound.Data, &edit); protoErr != nil {
			return nil, protoErr, nil
		}
		if edit.MessageID == "" {
			return nil, badRequest("messageId is required"), nil
		}
		if strings.TrimSpace(edit.NewContent) == "" {
			return nil, badRequest("newContent is required"), nil
		}
		return &core.Command{Kind: core.CommandEditMessage, MessageID: edit.MessageID, Content: edit.NewContent}, nil, nil

	case proto.InboundTypeUpdateStatus:
		var status proto.StatusData
		if protoErr := decode(inbound.Data, &status); protoErr != nil {
			return nil, protoErr, nil
		}
		return &core.Command{Kind: core.CommandUpdateStatus, Status: status.Status}, nil, nil

	case proto.InboundTypeUpdateAvatar:
		var avatar proto.AvatarData
		if protoErr := decode(inbound.Data, &avatar); protoErr != nil {
			return nil, protoErr, nil
		}
		if avatar.Avatar == "" {
			return nil, badRequest("avatar is required"), nil
		}
		return &core.Command{Kind: core.CommandUpdateAvatar, Avatar: avatar.Avatar}, nil, nil

	case proto.InboundTypeBanUser, proto.InboundTypeUnbanUser:
		var target proto.TargetData
		if protoErr := decode(inbound.Data, &target); protoErr != nil {
			return nil, protoErr, nil
		}
		name := strings.TrimSpace(target.Username)
		if name == "" {
			return nil, badRequest("username is required"), nil
		}
		kind := core.CommandBanUser
		if inbound.Type == proto.InboundTypeUnbanUser {
			kind = core.CommandUnbanUser
		}
		return &core.Command{Kind: kind, Target: name}, nil, nil

	case proto.InboundTypeGetBannedUsers:
		return &core.Command{Kind: core.CommandListBans}, nil, nil

	case proto.InboundTypeClearChat:
		return &core.Command{Kind: core.CommandClearChat}, nil, nil

	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func decode(data json.RawMessage, v any) *proto.Error {
	if len(data) == 0 {
		return badRequest("data is required")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return badRequest("malformed data")
	}
	return nil
}

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: msg}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventRegistered:
		return eventFrame(proto.EventRegistered, ownUser(event.User))
	case core.EventUsernameTaken:
		return eventFrame(proto.EventUsernameTaken, proto.EventNotice{Username: event.Username})
	case core.EventBanned:
		return eventFrame(proto.EventBanned, proto.EventNotice{Message: event.Notice})
	case core.EventMessageHistory:
		return eventFrame(proto.EventMessageHistory, messagesToProto(event.Messages))
	case core.EventUserJoined:
		return eventFrame(proto.EventUserJoined, proto.EventUser{Username: event.Username, Avatar: event.Avatar})
	case core.EventOnlineUsers:
		users := make([]proto.User, 0, len(event.Users))
		for _, u := range event.Users {
			users = append(users, publicUser(u))
		}
		return eventFrame(proto.EventOnlineUsers, users)
	case core.EventNewMessage:
		return eventFrame(proto.EventNewMessage, messageToProto(event.Message))
	case core.EventMentioned:
		return eventFrame(proto.EventMentioned, proto.MentionedData{By: event.By, Message: messageToProto(event.Message)})
	case core.EventTypingUsers:
		typists := event.Typists
		if typists == nil {
			typists = []string{}
		}
		return eventFrame(proto.EventTypingUsers, typists)
	case core.EventMessageReactions:
		return eventFrame(proto.EventMessageReactions, proto.EventReactions{
			MessageID: event.MessageID,
			Reactions: reactionsToProto(event.Reactions),
		})
	case core.EventMessageDeleted:
		return eventFrame(proto.EventMessageDeleted, proto.EventMessageRef{MessageID: event.MessageID})
	case core.EventMessageEdited:
		return eventFrame(proto.EventMessageEdited, proto.MessageEditedData{
			MessageID:  event.MessageID,
			NewContent: event.Content,
			EditedAt:   event.EditedAt,
		})
	case core.EventUserStatusUpdated:
		return eventFrame(proto.EventUserStatusUpdated, proto.EventUser{Username: event.Username, Status: event.Status})
	case core.EventUserUpdated:
		return eventFrame(proto.EventUserUpdated, proto.EventUser{Username: event.Username, Avatar: event.Avatar})
	case core.EventUserBanned:
		return eventFrame(proto.EventUserBanned, proto.EventUser{Username: event.Username})
	case core.EventUserUnbanned:
		return eventFrame(proto.EventUserUnbanned, proto.EventUser{Username: event.Username})
	case core.EventBannedUsersList:
		bans := make([]proto.Ban, 0, len(event.Bans))
		for _, b := range event.Bans {
			bans = append(bans, proto.Ban{Username: b.Username, BannedBy: b.BannedBy, BannedAt: b.BannedAt})
		}
		return eventFrame(proto.EventBannedUsersList, bans)
	case core.EventChatCleared:
		return proto.Outbound{Type: proto.OutboundTypeEvent, Event: proto.EventChatCleared}
	case core.EventUserLeft:
		return eventFrame(proto.EventUserLeft, proto.EventUser{Username: event.Username})
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func eventFrame(name string, data any) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: name, Data: data}
}

func publicUser(u *store.User) proto.User {
	if u == nil {
		return proto.User{}
	}
	return proto.User{
		Username:     u.Username,
		Avatar:       u.Avatar,
		IsAdmin:      u.IsAdmin,
		JoinedAt:     u.JoinedAt,
		LastSeen:     u.LastSeen,
		Status:       u.Status,
		MessageCount: u.MessageCount,
	}
}

// ownUser includes the session token; only the user it belongs to may see it.
func ownUser(u *store.User) proto.User {
	out := publicUser(u)
	if u != nil {
		out.SessionID = u.SessionID
	}
	return out
}

func messagesToProto(messages []*store.Message) []proto.Message {
	out := make([]proto.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageToProto(m))
	}
	return out
}

func messageToProto(m *store.Message) proto.Message {
	if m == nil {
		return proto.Message{}
	}
	mentions := m.Mentions
	if mentions == nil {
		mentions = []string{}
	}
	return proto.Message{
		ID:        m.ID,
		Username:  m.Username,
		Avatar:    m.Avatar,
		Type:      string(m.Kind),
		Content:   m.Content,
		FileName:  m.FileName,
		FileSize:  m.FileSize,
		ReplyTo:   m.ReplyTo,
		Mentions:  mentions,
		Timestamp: m.CreatedAt,
		IsAdmin:   m.AuthorIsAdmin,
		Edited:    m.Edited,
		EditedAt:  m.EditedAt,
		Reactions: reactionsToProto(m.Reactions),
	}
}

func reactionsToProto(reactions []*store.Reaction) []proto.Reaction {
	out := make([]proto.Reaction, 0, len(reactions))
	for _, r := range reactions {
		out = append(out, proto.Reaction{
			MessageID: r.MessageID,
			Username:  r.Username,
			Emoji:     r.Emoji,
			Timestamp: r.CreatedAt,
		})
	}
	return out
}
