package session

import (
	"realm/internal/chat"
	"realm/internal/data"
	"realm/internal/world"
)

// Inbound message types.
const (
	MsgLogin           = "login"
	MsgCreateCharacter = "create_character"
	MsgSelectCharacter = "select_character"
	MsgCommand         = "command"
	MsgChat            = "chat"
)

// Outbound message types.
const (
	MsgError      = "error"
	MsgCharacters = "characters"
	MsgJoined     = "joined"
	MsgUpdate     = "update"
)

type inbound struct {
	Type     string         `json:"type"`
	Account  string         `json:"account,omitempty"`
	Password string         `json:"password,omitempty"`
	Token    string         `json:"token,omitempty"`
	Name     string         `json:"name,omitempty"`
	Class    string         `json:"class,omitempty"`
	Command  *world.Command `json:"command,omitempty"`
	Chat     *chat.Message  `json:"chat,omitempty"`
}

type outbound struct {
	Type       string         `json:"type"`
	Message    string         `json:"message,omitempty"`
	Disconnect bool           `json:"disconnect,omitempty"`
	Characters []data.Summary `json:"characters,omitempty"`
	Token      string         `json:"token,omitempty"`
	ID         string         `json:"id,omitempty"`
	Update     *world.Update  `json:"update,omitempty"`
	Chat       *chat.Message  `json:"chat,omitempty"`
}
