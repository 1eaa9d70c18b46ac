package integrators

import (
	"testing"

	"github.com/san-kum/inspiral/internal/dynamo"
)

func benchmarkStepper(b *testing.B, s dynamo.Integrator) {
	dyn := &oscillator{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x, _ = s.Step(dyn, x, 0, 0.01)
	}
}

func BenchmarkEuler(b *testing.B) { benchmarkStepper(b, NewEuler()) }
func BenchmarkRK4(b *testing.B)   { benchmarkStepper(b, NewRK4()) }
func BenchmarkRK45(b *testing.B)  { benchmarkStepper(b, NewRK45()) }
