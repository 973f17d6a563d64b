package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/solenlabs/agent-relay/backend/internal/model/trace"
)

const arkSystemPrompt = `You are the storefront assistant answering on behalf of a team of specialist agents.
Answer the user's message directly and concisely.`

// ArkSource drives invocations against an Ark chat model. The model's
// streamed deltas surface as content-chunk events carrying the accumulated
// response so far, so the last chunk always holds the full response text.
type ArkSource struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewArkSource compiles the invocation chain over the supplied chat model.
func NewArkSource(ctx context.Context, chatModel model.ChatModel) (*ArkSource, error) {
	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile agent chain: %w", err)
	}

	return &ArkSource{chain: runnable}, nil
}

// Invoke starts a streamed model run for the session's message.
func (s *ArkSource) Invoke(ctx context.Context, sessionID, inputText string) (Stream, error) {
	reader, err := s.chain.Stream(ctx, map[string]any{
		"system": arkSystemPrompt,
		"query":  inputText,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to stream agent output: %w", err)
	}
	return &arkStream{reader: reader}, nil
}

type arkStream struct {
	reader  *schema.StreamReader[*schema.Message]
	content strings.Builder
}

func (st *arkStream) Recv() (trace.Event, error) {
	for {
		chunk, err := st.reader.Recv()
		if err != nil {
			// io.EOF passes through as the normal termination signal.
			return trace.Event{}, err
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}

		st.content.WriteString(chunk.Content)
		return trace.Event{Chunk: &trace.Chunk{Content: st.content.String()}}, nil
	}
}

func (st *arkStream) Close() error {
	st.reader.Close()
	return nil
}
