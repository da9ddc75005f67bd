package lsp

import "testing"

func TestExtractSymbolsNesting(t *testing.T) {
	content := `<%
Class Person
  Dim m_name
  Function GetName()
    GetName = m_name
  End Function
  Sub SetName(value)
    m_name = value
  End Sub
End Class
Dim globalCounter
%>`

	symbols := extractSymbols(content)
	if len(symbols) != 2 {
		t.Fatalf("expected 2 top-level symbols, got %d: %+v", len(symbols), symbols)
	}

	class := symbols[0]
	if class.Name != "Person" || class.Kind != symbolKindClass {
		t.Fatalf("unexpected class symbol: %+v", class)
	}
	if len(class.Children) != 3 {
		t.Fatalf("expected 3 members, got %d: %+v", len(class.Children), class.Children)
	}
	if class.Children[0].Name != "m_name" || class.Children[0].Kind != symbolKindVariable {
		t.Fatalf("unexpected member: %+v", class.Children[0])
	}
	if class.Children[1].Name != "GetName" || class.Children[1].Kind != symbolKindFunction {
		t.Fatalf("unexpected member: %+v", class.Children[1])
	}
	if class.Children[2].Name != "SetName" || class.Children[2].Kind != symbolKindMethod {
		t.Fatalf("unexpected member: %+v", class.Children[2])
	}
	// Class range is extended to its End Class line.
	if class.Range.End.Line != 9 {
		t.Fatalf("expected class to end at line 9, got %d", class.Range.End.Line)
	}

	if symbols[1].Name != "globalCounter" || symbols[1].Kind != symbolKindVariable {
		t.Fatalf("unexpected top-level symbol: %+v", symbols[1])
	}
}

func TestExtractSymbolsSkipsHTML(t *testing.T) {
	content := "Function NotCode()\n<% Dim real %>\nSub AlsoNotCode()"
	symbols := extractSymbols(content)
	if len(symbols) != 1 || symbols[0].Name != "real" {
		t.Fatalf("HTML lines must be ignored, got %+v", symbols)
	}
}

func TestExtractSymbolsDimList(t *testing.T) {
	symbols := extractSymbols("<% Dim a, b, c %>")
	if len(symbols) != 3 {
		t.Fatalf("expected 3 variables, got %+v", symbols)
	}
	for i, want := range []string{"a", "b", "c"} {
		if symbols[i].Name != want {
			t.Fatalf("expected %q, got %q", want, symbols[i].Name)
		}
	}
}

func TestExtractSymbolsUnterminatedBlock(t *testing.T) {
	symbols := extractSymbols("<%\nFunction Dangling()\n  x = 1")
	if len(symbols) != 1 || symbols[0].Name != "Dangling" {
		t.Fatalf("unterminated function should still appear, got %+v", symbols)
	}
}
