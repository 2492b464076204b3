package llm

import "strings"

// Context accumulates the conversation sent to the model. It lives for
// one session and is only touched from the session loop, so it carries
// no locking.
type Context struct {
	system   string
	messages []Message
}

func NewContext(system string) *Context {
	return &Context{system: system}
}

func (c *Context) AddUser(text string) {
	c.append(RoleUser, text)
}

func (c *Context) AddModel(text string) {
	c.append(RoleModel, text)
}

func (c *Context) append(role, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	// Consecutive user utterances merge into one message so the model
	// sees alternating roles.
	if n := len(c.messages); n > 0 && c.messages[n-1].Role == role {
		c.messages[n-1].Text += "\n" + text
		return
	}
	c.messages = append(c.messages, Message{Role: role, Text: text})
}

func (c *Context) Len() int {
	return len(c.messages)
}

// Snapshot copies the conversation into a request the generation
// goroutine can use without racing the session loop.
func (c *Context) Snapshot(sessionID, turnID string) GenerateRequest {
	msgs := make([]Message, len(c.messages))
	copy(msgs, c.messages)
	return GenerateRequest{
		SessionID: sessionID,
		TurnID:    turnID,
		System:    c.system,
		Messages:  msgs,
	}
}
