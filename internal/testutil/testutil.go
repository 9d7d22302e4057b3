// Package testutil provides shared fixtures and skip helpers for tests.
//
// Unit tests build tiny SentencePiece models on the fly with WriteModel so
// they do not depend on a trained vocabulary. Integration tests that want a
// real model call RequireModel, which skips with a clear reason when none is
// configured.
//
// Typical usage:
//
//	func TestEncodeIntegration(t *testing.T) {
//	    model := testutil.RequireModel(t)
//	    ...
//	}
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	gosp "github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
	"google.golang.org/protobuf/proto"
)

// ModelEnv names the environment variable pointing at a real .model file.
const ModelEnv = "SPMENCODE_TEST_MODEL"

// WordStart is the SentencePiece word-boundary marker (U+2581).
const WordStart = "▁"

// ReservedPieces is the number of control pieces WriteModel places before the
// caller's pieces: <unk>=0, <s>=1, </s>=2.
const ReservedPieces = 3

// RequireModel returns the path in SPMENCODE_TEST_MODEL, skipping the test
// when it is unset or the file does not exist.
func RequireModel(tb testing.TB) string {
	tb.Helper()

	path := os.Getenv(ModelEnv)
	if path == "" {
		tb.Skipf("no real sentencepiece model configured; set %s to run", ModelEnv)
		return ""
	}

	if _, err := os.Stat(path); err != nil {
		tb.Skipf("sentencepiece model not found at %s=%q", ModelEnv, path)
		return ""
	}

	return path
}

// WriteModel writes a minimal unigram SentencePiece model to a temp file and
// returns its path. Each word becomes the normal piece "▁word" with id
// ReservedPieces+index, so whitespace-separated input made only of those
// words segments into exactly one piece per word.
func WriteModel(tb testing.TB, words ...string) string {
	tb.Helper()

	pieces := []*gosp.ModelProto_SentencePiece{
		newPiece("<unk>", 0, gosp.ModelProto_SentencePiece_UNKNOWN),
		newPiece("<s>", 0, gosp.ModelProto_SentencePiece_CONTROL),
		newPiece("</s>", 0, gosp.ModelProto_SentencePiece_CONTROL),
	}
	for _, w := range words {
		pieces = append(pieces, newPiece(WordStart+w, -1, gosp.ModelProto_SentencePiece_NORMAL))
	}

	data, err := proto.Marshal(&gosp.ModelProto{Pieces: pieces})
	if err != nil {
		tb.Fatalf("marshal model: %v", err)
	}

	path := filepath.Join(tb.TempDir(), "test.model")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		tb.Fatalf("write model: %v", err)
	}

	return path
}

// WriteLines writes lines, each newline-terminated, to dir/name and returns
// the path.
func WriteLines(tb testing.TB, dir, name string, lines ...string) string {
	tb.Helper()

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}

	return path
}

// ReadLines returns the newline-separated lines of path without the final
// empty element.
func ReadLines(tb testing.TB, path string) []string {
	tb.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("read %s: %v", path, err)
	}

	s := strings.TrimSuffix(string(data), "\n")
	if s == "" {
		return nil
	}

	return strings.Split(s, "\n")
}

func newPiece(piece string, score float32, typ gosp.ModelProto_SentencePiece_Type) *gosp.ModelProto_SentencePiece {
	return &gosp.ModelProto_SentencePiece{
		Piece: proto.String(piece),
		Score: proto.Float32(score),
		Type:  typ.Enum(),
	}
}
