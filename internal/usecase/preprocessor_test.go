package usecase

import "testing"

func TestCleanQuery(t *testing.T) {
	p := NewQueryPreprocessor()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"strips trailing price", "Halfvolle Melk  1.09", "Halfvolle Melk"},
		{"strips trailing price with bonus letter", "Brood Volkoren  2,20 B", "Brood Volkoren"},
		{"strips quantity prefix", "2x Yoghurt Griekse Stijl", "Yoghurt Griekse Stijl"},
		{"strips weight pattern", "Kipfilet 0.486 kg", "Kipfilet"},
		{"strips volume pattern", "Cola 1.5l", "Cola"},
		{"strips AH store brand prefix", "AH Halfvolle Melk", "Halfvolle Melk"},
		{"strips Jumbo store brand prefix", "Jumbo Pindakaas", "Pindakaas"},
		{"collapses whitespace", "Kaas   Jong   Belegen", "Kaas Jong Belegen"},
		{"keeps plain product name", "Appels Elstar", "Appels Elstar"},
		{"empty input stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.CleanQuery(tt.input)
			if got != tt.want {
				t.Errorf("CleanQuery(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanQueryLimitsLength(t *testing.T) {
	p := NewQueryPreprocessor()

	long := ""
	for i := 0; i < 30; i++ {
		long += "boterham "
	}

	got := p.CleanQuery(long)
	if len(got) > 100 {
		t.Errorf("len = %d, want <= 100", len(got))
	}
}
