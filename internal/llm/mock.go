package llm

import "context"

// MockClient permite tests sin llamar al proveedor real. Entrega los
// deltas configurados en orden y devuelve Err al final si está seteado.
type MockClient struct {
	Deltas    []string
	Err       error
	LastTurns []Turn
	Calls     int
}

func (m *MockClient) GenerateStream(_ context.Context, turns []Turn, onDelta func(delta string)) error {
	m.Calls++
	m.LastTurns = turns
	for _, d := range m.Deltas {
		onDelta(d)
	}
	return m.Err
}
