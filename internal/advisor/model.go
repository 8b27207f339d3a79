package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"side-stacker-server/internal/domain"
)

// MoveSlots is the output width: two insertion sides per row.
const MoveSlots = domain.Rows * 2

// boardInputs is two one-hot occupancy planes (own pieces, opponent
// pieces) plus the legal-move mask.
const boardInputs = domain.Rows*domain.Columns*2 + MoveSlots

// Model is a trained feed-forward move scorer. It only consumes exported
// weights; training happens elsewhere.
type Model struct {
	layers []denseLayer
}

type denseLayer struct {
	weights *mat.Dense // out x in
	biases  *mat.VecDense
	relu    bool
}

type layerExport struct {
	Weights [][]float64 `json:"weights"`
	Biases  []float64   `json:"biases"`
}

type modelExport struct {
	Layers []layerExport `json:"layers"`
}

// LoadModel reads a JSON weight export. The network must take boardInputs
// values and emit one score per move slot.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model weights: %w", err)
	}

	var export modelExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("parse model weights: %w", err)
	}
	if len(export.Layers) == 0 {
		return nil, fmt.Errorf("model has no layers")
	}

	m := &Model{}
	expectIn := boardInputs
	for i, l := range export.Layers {
		out := len(l.Weights)
		if out == 0 || len(l.Biases) != out {
			return nil, fmt.Errorf("layer %d: malformed shape", i)
		}
		in := len(l.Weights[0])
		if in != expectIn {
			return nil, fmt.Errorf("layer %d: expected %d inputs, got %d", i, expectIn, in)
		}
		flat := make([]float64, 0, out*in)
		for _, row := range l.Weights {
			if len(row) != in {
				return nil, fmt.Errorf("layer %d: ragged weight matrix", i)
			}
			flat = append(flat, row...)
		}
		m.layers = append(m.layers, denseLayer{
			weights: mat.NewDense(out, in, flat),
			biases:  mat.NewVecDense(out, append([]float64(nil), l.Biases...)),
			relu:    i < len(export.Layers)-1,
		})
		expectIn = out
	}
	if expectIn != MoveSlots {
		return nil, fmt.Errorf("model emits %d outputs, want %d", expectIn, MoveSlots)
	}
	return m, nil
}

func (m *Model) Suggest(ctx context.Context, board domain.Board, moves []domain.Move) (domain.Move, bool) {
	if len(moves) == 0 {
		return domain.Move{}, false
	}
	select {
	case <-ctx.Done():
		return domain.Move{}, false
	default:
	}

	legal := make([]bool, MoveSlots)
	for _, mv := range moves {
		legal[MoveIndex(mv)] = true
	}

	scores := m.forward(encodeInput(board, legal))

	best := -1
	for idx := 0; idx < MoveSlots; idx++ {
		if !legal[idx] {
			continue
		}
		if best == -1 || scores.AtVec(idx) > scores.AtVec(best) {
			best = idx
		}
	}
	if best == -1 {
		return domain.Move{}, false
	}

	move := domain.Move{Row: best / 2, Side: domain.SideLeft}
	if best%2 == 1 {
		move.Side = domain.SideRight
	}
	return move, true
}

func encodeInput(board domain.Board, legal []bool) *mat.VecDense {
	input := mat.NewVecDense(boardInputs, nil)
	cells := domain.Rows * domain.Columns
	for row := 0; row < domain.Rows; row++ {
		for col := 0; col < domain.Columns; col++ {
			cell := row*domain.Columns + col
			switch board[row][col] {
			case domain.Player2:
				input.SetVec(cell, 1)
			case domain.Player1:
				input.SetVec(cells+cell, 1)
			}
		}
	}
	for idx, ok := range legal {
		if ok {
			input.SetVec(2*cells+idx, 1)
		}
	}
	return input
}

func (m *Model) forward(input *mat.VecDense) *mat.VecDense {
	current := input
	for _, layer := range m.layers {
		out := mat.NewVecDense(layer.biases.Len(), nil)
		out.MulVec(layer.weights, current)
		out.AddVec(out, layer.biases)
		if layer.relu {
			for i := 0; i < out.Len(); i++ {
				if out.AtVec(i) < 0 {
					out.SetVec(i, 0)
				}
			}
		}
		current = out
	}
	return current
}
