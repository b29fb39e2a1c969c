package sbml

import (
	"errors"
	"strings"
	"testing"

	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/cellkit/cellfmt/pkg/formats"
	"github.com/cellkit/cellfmt/pkg/formats/ansic"
	"github.com/cellkit/cellfmt/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = `<?xml version="1.0" encoding="UTF-8"?>
<sbml xmlns="http://www.sbml.org/sbml/level3/version2/core" level="3" version="2">
`

func importString(t *testing.T, body string) (*core.Model, error) {
	t.Helper()
	return Importer{}.Import(strings.NewReader(header + body + "\n</sbml>\n"))
}

const linear = `  <model id="linear" name="linear">
    <listOfParameters>
      <parameter id="x" value="3" constant="true"/>
      <parameter id="y" constant="false"/>
    </listOfParameters>
    <listOfRules>
      <assignmentRule variable="y">
        <math xmlns="http://www.w3.org/1998/Math/MathML">
          <apply>
            <plus/>
            <apply><times/><cn type="integer">2</cn><ci> x </ci></apply>
            <cn>1</cn>
          </apply>
        </math>
      </assignmentRule>
    </listOfRules>
  </model>`

func TestImport_AssignmentRule(t *testing.T) {
	m, err := importString(t, linear)
	require.NoError(t, err)

	assert.Equal(t, "linear", m.Name)
	assert.Equal(t, []string{"time", "x", "y"}, m.Names())

	x, _ := m.Lookup("x")
	assert.Equal(t, core.RoleConstant, x.Role)
	assert.Equal(t, 3.0, x.Expr.(*core.Number).Float64())

	y, _ := m.Lookup("y")
	assert.Equal(t, core.RoleVariable, y.Role)
	want := core.Bin(token.PLUS, core.Bin(token.STAR, core.Num(2), core.Ref("x")), core.Num(1))
	assert.True(t, core.Equal(want, y.Expr), core.Format(y.Expr))
}

func TestImport_RoundTripThroughANSIC(t *testing.T) {
	m, err := importString(t, linear)
	require.NoError(t, err)

	doc, err := ansic.Exporter{}.Export(m, nil)
	require.NoError(t, err)
	assert.Contains(t, doc.Content, "const double y = 2.0 * x + 1.0;")
	assert.Contains(t, doc.Content, "static const double x = 3.0;")
}

func TestImport_Reactions(t *testing.T) {
	m, err := importString(t, `  <model id="decay">
    <listOfCompartments>
      <compartment id="cell" size="2"/>
    </listOfCompartments>
    <listOfSpecies>
      <species id="A" compartment="cell" initialAmount="10" substanceUnits="mole"/>
      <species id="B" compartment="cell" initialConcentration="0"/>
      <species id="S" compartment="cell" initialAmount="1" boundaryCondition="true"/>
    </listOfSpecies>
    <listOfReactions>
      <reaction id="r1" reversible="false">
        <listOfReactants>
          <speciesReference species="A" stoichiometry="2"/>
          <speciesReference species="S"/>
        </listOfReactants>
        <listOfProducts>
          <speciesReference species="B"/>
        </listOfProducts>
        <kineticLaw>
          <math xmlns="http://www.w3.org/1998/Math/MathML">
            <apply><times/><ci>k</ci><ci>A</ci><ci>cell</ci></apply>
          </math>
          <listOfLocalParameters>
            <localParameter id="k" value="0.1"/>
          </listOfLocalParameters>
        </kineticLaw>
      </reaction>
    </listOfReactions>
  </model>`)
	require.NoError(t, err)

	assert.Equal(t, "decay", m.Name)
	assert.Equal(t, []string{"time", "cell", "A", "B", "S", "r1.k", "r1"}, m.Names())

	a, _ := m.Lookup("A")
	assert.Equal(t, core.RoleState, a.Role)
	assert.Equal(t, "mole", a.Unit)
	assert.True(t, core.Equal(core.Neg(core.Bin(token.STAR, core.Num(2), core.Ref("r1"))), a.Expr), core.Format(a.Expr))

	b, _ := m.Lookup("B")
	assert.Equal(t, core.RoleState, b.Role)
	assert.True(t, core.Equal(core.Ref("r1"), b.Expr))

	s, _ := m.Lookup("S")
	assert.Equal(t, core.RoleConstant, s.Role, "boundary species stay constant")

	r1, _ := m.Lookup("r1")
	assert.Equal(t, core.RoleVariable, r1.Role)
	assert.Equal(t, []string{"r1.k", "A", "cell"}, core.References(r1.Expr))
}

func TestImport_RateRuleAndInitialAssignment(t *testing.T) {
	m, err := importString(t, `  <model id="osc">
    <listOfParameters>
      <parameter id="k" value="2"/>
      <parameter id="V" value="0" constant="false"/>
    </listOfParameters>
    <listOfInitialAssignments>
      <initialAssignment symbol="V">
        <math xmlns="http://www.w3.org/1998/Math/MathML">
          <apply><minus/><ci>k</ci></apply>
        </math>
      </initialAssignment>
    </listOfInitialAssignments>
    <listOfRules>
      <rateRule variable="V">
        <math xmlns="http://www.w3.org/1998/Math/MathML">
          <apply><times/><ci>k</ci><csymbol encoding="text" definitionURL="http://www.sbml.org/sbml/symbols/time">t</csymbol></apply>
        </math>
      </rateRule>
    </listOfRules>
  </model>`)
	require.NoError(t, err)

	v, _ := m.Lookup("V")
	assert.Equal(t, core.RoleState, v.Role)
	assert.True(t, core.Equal(core.Neg(core.Ref("k")), v.Initial))
	assert.True(t, core.Equal(core.Bin(token.STAR, core.Ref("k"), core.Ref("time")), v.Expr))
}

func TestMath(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		want core.Expr
	}{
		{"e-notation", `<cn type="e-notation"> 1.5 <sep/> 3 </cn>`, core.Num(1500)},
		{"rational", `<cn type="rational">1<sep/>3</cn>`, core.Bin(token.SLASH, core.Num(1), core.Num(3))},
		{"true", `<true/>`, core.Num(1)},
		{"sqrt", `<apply><root/><ci>x</ci></apply>`, core.Fn("sqrt", core.Ref("x"))},
		{"cube root", `<apply><root/><degree><cn>3</cn></degree><ci>x</ci></apply>`,
			core.Bin(token.POW, core.Ref("x"), core.Bin(token.SLASH, core.Num(1), core.Num(3)))},
		{"log10", `<apply><log/><ci>x</ci></apply>`, core.Fn("log10", core.Ref("x"))},
		{"log base", `<apply><log/><logbase><cn>2</cn></logbase><ci>x</ci></apply>`,
			core.Fn("log", core.Ref("x"), core.Num(2))},
		{"ln", `<apply><ln/><ci>x</ci></apply>`, core.Fn("log", core.Ref("x"))},
		{"ceiling", `<apply><ceiling/><ci>x</ci></apply>`, core.Fn("ceil", core.Ref("x"))},
		{"power", `<apply><power/><ci>x</ci><cn>2</cn></apply>`, core.Bin(token.POW, core.Ref("x"), core.Num(2))},
		{"chained lt", `<apply><lt/><cn>0</cn><ci>x</ci><cn>1</cn></apply>`,
			core.Bin(token.AND,
				core.Bin(token.LT, core.Num(0), core.Ref("x")),
				core.Bin(token.LT, core.Ref("x"), core.Num(1)))},
		{"not", `<apply><not/><apply><eq/><ci>x</ci><cn>0</cn></apply></apply>`,
			core.Not(core.Bin(token.EQ, core.Ref("x"), core.Num(0)))},
		{"piecewise", `<piecewise>
			<piece><cn>1</cn><apply><gt/><ci>x</ci><cn>0</cn></apply></piece>
			<piece><cn>2</cn><apply><lt/><ci>x</ci><cn>0</cn></apply></piece>
			<otherwise><cn>0</cn></otherwise>
		</piecewise>`,
			core.Cond(core.Bin(token.GT, core.Ref("x"), core.Num(0)), core.Num(1),
				core.Cond(core.Bin(token.LT, core.Ref("x"), core.Num(0)), core.Num(2), core.Num(0)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := parseTree(strings.NewReader(`<math xmlns="http://www.w3.org/1998/Math/MathML">` + tt.xml + `</math>`))
			require.NoError(t, err)
			got, err := (&mathConverter{time: TimeName}).convertMath(root)
			require.NoError(t, err)
			assert.True(t, core.Equal(tt.want, got), "got %s", core.Format(got))
		})
	}
}

func TestImport_Errors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantPath string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "wrong root",
			doc:      `<cellml/>`,
			wantPath: "/cellml",
			wantLine: 1,
			wantMsg:  "root element must be <sbml>",
		},
		{
			name:     "missing model",
			doc:      header + `</sbml>`,
			wantPath: "/sbml",
			wantLine: 2,
			wantMsg:  "missing <model>",
		},
		{
			name: "unsupported operator in second rule",
			doc: header + `<model id="m">
<listOfParameters>
<parameter id="a" value="1" constant="false"/>
<parameter id="b" value="1" constant="false"/>
</listOfParameters>
<listOfRules>
<assignmentRule variable="a"><math><cn>1</cn></math></assignmentRule>
<assignmentRule variable="b"><math><apply><factorial/><cn>3</cn></apply></math></assignmentRule>
</listOfRules>
</model>
</sbml>`,
			wantPath: "/sbml/model/listOfRules/assignmentRule[2]/math/apply/factorial",
			wantLine: 10,
			wantMsg:  "unsupported MathML operator <factorial>",
		},
		{
			name:     "syntax error",
			doc:      header + "<model id=\"m\">\n<listOfParameters>\n</model>\n</sbml>",
			wantPath: "/sbml/model/listOfParameters",
			wantLine: 5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Importer{}.Import(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrMalformedInput))

			var mie *core.MalformedInputError
			require.ErrorAs(t, err, &mie)
			assert.Equal(t, "sbml", mie.Format)
			assert.Equal(t, tt.wantPath, mie.Path)
			assert.Equal(t, tt.wantLine, mie.Line)
			if tt.wantMsg != "" {
				assert.Contains(t, mie.Msg, tt.wantMsg)
			}
		})
	}
}

func TestImport_StateWithoutInitialValue(t *testing.T) {
	_, err := importString(t, `  <model id="m">
    <listOfParameters>
      <parameter id="V" constant="false"/>
    </listOfParameters>
    <listOfRules>
      <rateRule variable="V"><math><cn>1</cn></math></rateRule>
    </listOfRules>
  </model>`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `state "V" has no initial value`)
}

func TestRegister(t *testing.T) {
	r := formats.NewRegistry()
	require.NoError(t, Register(r))

	imp, err := r.ImporterFor("models/decay.XML")
	require.NoError(t, err)
	assert.Equal(t, Key, imp.Descriptor().Key)
}
