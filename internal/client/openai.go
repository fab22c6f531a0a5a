package client

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient wraps the OpenAI API for text-to-speech synthesis. It is
// used as an alternative reference-audio backend when no dedicated
// synthesis endpoint is configured.
type OpenAIClient struct {
	client *openai.Client
	voice  openai.SpeechVoice
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(apiKey, voice string) *OpenAIClient {
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		voice:  openai.SpeechVoice(voice),
	}
}

// Speech synthesizes spoken audio (MP3) for the given text.
func (c *OpenAIClient) Speech(ctx context.Context, text string) ([]byte, error) {
	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.TTSModel1,
		Input: text,
		Voice: c.voice,
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesized audio: %w", err)
	}

	return audio, nil
}
