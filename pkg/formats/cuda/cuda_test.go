package cuda

import (
	"errors"
	"testing"

	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/cellkit/cellfmt/pkg/export"
	"github.com/cellkit/cellfmt/pkg/formats"
	"github.com/cellkit/cellfmt/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demoModel() *core.Model {
	m := core.NewModel("demo")
	m.MustAdd(&core.Binding{Name: "t", Role: core.RoleInput})
	m.MustAdd(&core.Binding{Name: "g", Role: core.RoleConstant, Expr: core.Num(2), Unit: "mS", Doc: "conductance"})
	m.MustAdd(&core.Binding{Name: "E_K", Role: core.RoleConstant, Expr: core.Num(-80)})
	m.MustAdd(&core.Binding{
		Name:    "V",
		Role:    core.RoleState,
		Initial: core.Ref("E_K"),
		Expr: core.Bin(token.PLUS,
			core.Neg(core.Bin(token.STAR, core.Ref("g"), core.Bin(token.MINUS, core.Ref("V"), core.Ref("E_K")))),
			core.Ref("I_stim")),
	})
	m.MustAdd(&core.Binding{
		Name: "I_stim",
		Role: core.RoleVariable,
		Expr: core.Cond(core.Bin(token.LT, core.Ref("t"), core.Num(1)), core.Num(10), core.Fn("exp", core.Neg(core.Ref("V")))),
	})
	return m
}

func TestExport(t *testing.T) {
	doc, err := Exporter{}.Export(demoModel(), nil)
	require.NoError(t, err)

	assert.Equal(t, "demo.cu", doc.Filename)
	assert.Equal(t, `// Model demo, generated by cellfmt.

#define N_STATES 1

__constant__ float g = 2.0f; // [mS] conductance
__constant__ float E_K = -80.0f;

__device__ void initial_state(float *state)
{
    state[0] = E_K; // V
}

__device__ void rhs(float time, const float *state, float *deriv)
{
    const float t = time;
    const float V = state[0];
    const float I_stim = (t < 1.0f ? 10.0f : expf(-V));
    deriv[0] = -(g * (V - E_K)) + I_stim; // dV/dt
}

__global__ void cell_step_init(float *states, int n_cells)
{
    const int cell = blockIdx.x * blockDim.x + threadIdx.x;
    if (cell >= n_cells) {
        return;
    }
    initial_state(states + cell * N_STATES);
}

__global__ void cell_step(float *states, int n_cells, float time, float dt)
{
    const int cell = blockIdx.x * blockDim.x + threadIdx.x;
    if (cell >= n_cells) {
        return;
    }
    float *state = states + cell * N_STATES;
    float deriv[N_STATES];
    rhs(time, state, deriv);
    for (int i = 0; i < N_STATES; i++) {
        state[i] += dt * deriv[i];
    }
}
`, doc.Content)
}

func TestExport_KernelName(t *testing.T) {
	doc, err := Exporter{}.Export(demoModel(), export.Options{"kernel_name": "lr_step", "include_comments": false})
	require.NoError(t, err)
	assert.Contains(t, doc.Content, "__global__ void lr_step(float *states")
	assert.Contains(t, doc.Content, "__global__ void lr_step_init(float *states")
	assert.NotContains(t, doc.Content, "//")

	for _, bad := range []string{"", "1step", "step-kernel", "float"} {
		_, err := Exporter{}.Export(demoModel(), export.Options{"kernel_name": bad})
		var optErr *core.InvalidOptionError
		require.ErrorAs(t, err, &optErr, "kernel_name %q", bad)
		assert.Equal(t, "kernel_name", optErr.Option)
	}
}

func TestExport_UnsupportedFunction(t *testing.T) {
	m := demoModel()
	m.MustAdd(&core.Binding{Name: "s", Role: core.RoleVariable, Expr: core.Fn("sign", core.Ref("V"))})

	doc, err := Exporter{}.Export(m, nil)
	assert.Nil(t, doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrUnsupportedConstruct))

	var unsupported *core.UnsupportedConstructError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "s", unsupported.Binding)
	assert.Equal(t, "cuda", unsupported.Dialect)
	assert.Equal(t, "function sign", unsupported.Construct)
}

func TestRegister(t *testing.T) {
	r := formats.NewRegistry()
	require.NoError(t, Register(r))
	assert.Equal(t, []string{Key}, r.Exporters())
	assert.Equal(t, []string{WriterKey}, r.Writers())
	assert.Equal(t, []string{"include_comments", "kernel_name"}, Exporter{}.Options())
}
