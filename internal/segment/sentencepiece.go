package segment

import (
	"fmt"
	"os"

	gosp "github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
	"google.golang.org/protobuf/proto"
)

// Piece is one vocabulary entry of a SentencePiece model.
type Piece struct {
	ID    int
	Piece string
	Score float32
	Type  string
}

// SentencePiece implements Segmenter using a UNIGRAM SentencePiece model.
type SentencePiece struct {
	proc   gosp.Sentencepiece
	pieces []*gosp.ModelProto_SentencePiece
}

// Load reads a SentencePiece model from modelPath. The model protobuf is
// decoded once for the piece table and handed to the encoder by path, since
// the upstream library only exposes a file-path API.
func Load(modelPath string) (*SentencePiece, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, ErrEmptyPath)
	}

	data, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrModelLoad, modelPath, err)
	}

	var model gosp.ModelProto
	if err := proto.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("%w %q: unmarshal: %w", ErrModelLoad, modelPath, err)
	}

	if len(model.GetPieces()) == 0 {
		return nil, fmt.Errorf("%w %q: model has no pieces", ErrModelLoad, modelPath)
	}

	proc, err := gosp.NewSentencepieceFromFile(modelPath, false)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrModelLoad, modelPath, err)
	}

	return &SentencePiece{proc: proc, pieces: model.GetPieces()}, nil
}

// VocabSize returns the number of pieces in the model.
func (s *SentencePiece) VocabSize() int { return len(s.pieces) }

// Vocab returns every vocabulary entry in id order.
func (s *SentencePiece) Vocab() []Piece {
	out := make([]Piece, len(s.pieces))
	for i, p := range s.pieces {
		out[i] = Piece{
			ID:    i,
			Piece: p.GetPiece(),
			Score: p.GetScore(),
			Type:  p.GetType().String(),
		}
	}

	return out
}

// IDs implements Segmenter.
func (s *SentencePiece) IDs(text string) ([]int, error) {
	if text == "" {
		return []int{}, nil
	}

	ids := s.proc.TokenizeToIDs(text)

	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}

	return out, nil
}

// Pieces implements Segmenter.
func (s *SentencePiece) Pieces(text string) ([]string, error) {
	if text == "" {
		return []string{}, nil
	}

	ids := s.proc.TokenizeToIDs(text)

	out := make([]string, len(ids))
	for i, id := range ids {
		if id < 0 || int(id) >= len(s.pieces) {
			return nil, fmt.Errorf("piece id %d out of vocabulary range [0, %d)", id, len(s.pieces))
		}

		out[i] = s.pieces[id].GetPiece()
	}

	return out, nil
}
