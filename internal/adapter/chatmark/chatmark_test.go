package chatmark

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIDELog struct {
	messages []string
}

func (f *fakeIDELog) Log(ctx context.Context, level, message string) error {
	f.messages = append(f.messages, level+": "+message)
	return nil
}

func TestStep_Format(t *testing.T) {
	var buf bytes.Buffer
	ide := &fakeIDELog{}
	p := NewPrinter(&buf, nil, ide)

	step := p.Open(context.Background(), "Analyzing...")
	step.Printf("- finding context\n")
	require.NoError(t, step.Close())
	require.NoError(t, step.Close())

	assert.Equal(t, "\n```Step\n# Analyzing...\n- finding context\n\n```\n", buf.String())
	require.Len(t, ide.messages, 1)
	assert.Contains(t, ide.messages[0], "debug: Step Analyzing... took")
}

func TestRun_ClosesOnError(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, nil, nil)

	boom := errors.New("boom")
	err := p.Run(context.Background(), "title", func(step *Step) error {
		return boom
	})
	assert.Equal(t, boom, err)
	assert.Equal(t, "\n```Step\n# title\n\n```\n", buf.String())
}

func TestLang(t *testing.T) {
	assert.Equal(t, LangZH, ParseLang("zh-CN"))
	assert.Equal(t, LangEN, ParseLang("en"))
	assert.Equal(t, LangEN, ParseLang("fr"))
	assert.Equal(t, "Simplified Chinese", LangZH.ChatLanguage())
	assert.Equal(t, "English", LangEN.ChatLanguage())

	assert.Equal(t, "Select test cases to generate", LangEN.T(MsgSelectCases))
	assert.NotEqual(t, LangEN.T(MsgSelectCases), LangZH.T(MsgSelectCases))
	assert.Equal(t, "unknown_key", LangZH.T("unknown_key"))
}

func TestCatalogComplete(t *testing.T) {
	for key := range catalog[LangEN] {
		_, ok := catalog[LangZH][key]
		assert.True(t, ok, "missing zh message %s", key)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("closed pipe")
}

func TestRun_ReportsCloseFailure(t *testing.T) {
	p := NewPrinter(failingWriter{}, nil, nil)
	err := p.Run(context.Background(), "title", func(step *Step) error {
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed pipe")

	fnErr := errors.New("boom")
	err = p.Run(context.Background(), "title", func(step *Step) error {
		return fnErr
	})
	assert.ErrorIs(t, err, fnErr)
}
