package similarity

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"lowercase", "HELLO World", "hello world"},
		{"diacritics", "Olá, Mundo!!  Ação_rápida 123", "ola mundo acao_rapida 123"},
		{"punctuation collapses", "erro:::conexão---servidor", "erro conexao servidor"},
		{"whitespace collapses", "  a \t\n b  ", "a b"},
		{"only punctuation", "!!! ??? ...", ""},
		{"spanish", "Configuración de la IMPRESORA", "configuracion de la impresora"},
		{"unicode digits kept", "versão ٣", "versao ٣"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Não consigo conectar ao servidor!",
		"Ñandú çà et là — über",
		"e-mail: joao@example.com / IP 10.0.0.1",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("Servidor,  não responde!")
	want := []string{"servidor", "nao", "responde"}
	if len(got) != len(want) {
		t.Fatalf("Tokens() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tokens()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if toks := Tokens(""); len(toks) != 0 {
		t.Errorf("Tokens(\"\") = %v, want empty", toks)
	}
}
