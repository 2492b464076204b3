package llm

import (
	"context"
	"strings"

	"github.com/antoniostano/rosie/internal/frame"
	"github.com/antoniostano/rosie/internal/pipeline"
)

// UserAggregator folds finalized user transcriptions into the
// conversation context before the model sees its next request.
type UserAggregator struct {
	conv *Context
}

func NewUserAggregator(conv *Context) *UserAggregator {
	return &UserAggregator{conv: conv}
}

func (a *UserAggregator) Name() string { return "user_context" }

func (a *UserAggregator) Process(_ context.Context, f frame.Frame, emit pipeline.Emit) error {
	if fr, ok := f.(frame.Transcription); ok {
		a.conv.AddUser(fr.Text)
	}
	return emit(f)
}

// AssistantAggregator folds the streamed model response back into the
// conversation context once it completes. Interrupted responses keep
// whatever fragments were already spoken.
type AssistantAggregator struct {
	conv *Context
	buf  strings.Builder
}

func NewAssistantAggregator(conv *Context) *AssistantAggregator {
	return &AssistantAggregator{conv: conv}
}

func (a *AssistantAggregator) Name() string { return "assistant_context" }

func (a *AssistantAggregator) Process(_ context.Context, f frame.Frame, emit pipeline.Emit) error {
	switch fr := f.(type) {
	case frame.LLMResponseStart:
		a.buf.Reset()
	case frame.LLMText:
		a.buf.WriteString(fr.Text)
	case frame.LLMResponseEnd:
		a.conv.AddModel(a.buf.String())
		a.buf.Reset()
	}
	return emit(f)
}
