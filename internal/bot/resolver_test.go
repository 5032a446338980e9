package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRegistry() (*Registry, *stubCommand, *stubCommand) {
	ask := &stubCommand{spec: Spec{Command: "ask"}}
	describe := &stubCommand{spec: Spec{Command: "describe", ReplyOnly: true}}
	return NewRegistry(ask, describe), ask, describe
}

func TestResolveMetadataCommandWins(t *testing.T) {
	registry, ask, _ := testRegistry()
	msg := NewMessage(Message{
		Text:     "/describe something",
		Metadata: map[string]string{"command": "ask"},
	})

	cmd := Resolve(msg, &Session{}, registry)
	assert.Same(t, Command(ask), cmd)
}

func TestResolveMetadataUnknownTokenReturnsNil(t *testing.T) {
	registry, _, _ := testRegistry()
	msg := NewMessage(Message{
		Text:     "/ask hello",
		Metadata: map[string]string{"command": "no-such"},
	})

	assert.Nil(t, Resolve(msg, &Session{}, registry))
}

func TestResolveFirstTextToken(t *testing.T) {
	registry, ask, _ := testRegistry()

	for _, text := range []string{"/ask hello", "ask hello", "/ASK hello"} {
		cmd := Resolve(NewMessage(Message{Text: text}), &Session{}, registry)
		assert.Same(t, Command(ask), cmd, "text %q", text)
	}
}

func TestResolveReplyOnlyRequiresReply(t *testing.T) {
	registry, _, describe := testRegistry()

	plain := NewMessage(Message{Text: "/describe"})
	assert.Nil(t, Resolve(plain, &Session{}, registry))

	reply := NewMessage(Message{Text: "/describe", ReplyToMessageID: "42"})
	assert.Same(t, Command(describe), Resolve(reply, &Session{}, registry))
}

func TestResolveArmedSessionCommand(t *testing.T) {
	registry, ask, _ := testRegistry()
	session := &Session{Context: map[string]string{"command": "ask"}}

	cmd := Resolve(NewMessage(Message{Text: "tell me a joke"}), session, registry)
	assert.Same(t, Command(ask), cmd)
}

func TestResolveArmedCommandForMediaMessage(t *testing.T) {
	registry, ask, _ := testRegistry()
	session := &Session{Context: map[string]string{"command": "ask"}}

	cmd := Resolve(NewMessage(Message{Image: "file-1"}), session, registry)
	assert.Same(t, Command(ask), cmd)
}

func TestResolveNothingMatches(t *testing.T) {
	registry, _, _ := testRegistry()
	assert.Nil(t, Resolve(NewMessage(Message{Text: "hello there"}), &Session{}, registry))
	assert.Nil(t, Resolve(NewMessage(Message{Text: "   "}), &Session{}, registry))
	assert.Nil(t, Resolve(NewMessage(Message{}), &Session{}, registry))
}
