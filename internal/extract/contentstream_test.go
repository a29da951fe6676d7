package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentText(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   string
	}{
		{
			name:   "simple Tj",
			stream: "BT /F1 12 Tf 72 720 Td (Room Rent) Tj ET",
			want:   "Room Rent",
		},
		{
			name:   "TJ with kerning and word gap",
			stream: "BT [(Co)-20(-pay)-300(ment)] TJ ET",
			want:   "Co-pay ment",
		},
		{
			name:   "Td moves to next line",
			stream: "BT 72 720 Td (Line one) Tj 0 -14 Td (Line two) Tj ET",
			want:   "Line one\nLine two",
		},
		{
			name:   "T* and quote operators",
			stream: "BT (first) Tj T* (second) Tj (third) ' 1 2 (fourth) \" ET",
			want:   "first\nsecond\nthird\nfourth",
		},
		{
			name:   "Tm on same baseline adds space",
			stream: "BT 1 0 0 1 72 700 Tm (Plan) Tj 1 0 0 1 120 700 Tm (Gold) Tj 1 0 0 1 72 680 Tm (Insurer) Tj ET",
			want:   "Plan Gold\nInsurer",
		},
		{
			name:   "escapes and nesting",
			stream: `BT (a\(b\) \101\102 (nested)) Tj ET`,
			want:   "a(b) AB (nested)",
		},
		{
			name:   "hex string",
			stream: "BT <48656C6C6F> Tj ET",
			want:   "Hello",
		},
		{
			name:   "odd hex string",
			stream: "BT <4142 4> Tj ET",
			want:   "AB@",
		},
		{
			name:   "utf16 with bom",
			stream: "BT <FEFF00520073002E0020003500300030> Tj ET",
			want:   "Rs. 500",
		},
		{
			name:   "windows-1252 bytes",
			stream: "BT (\x80 10) Tj ET",
			want:   "€ 10",
		},
		{
			name:   "comments are skipped",
			stream: "% header comment\nBT (kept) Tj %(dropped) Tj\nET",
			want:   "kept",
		},
		{
			name:   "inline image skipped",
			stream: "q BI /W 2 /H 1 /BPC 8 /CS /G ID \x01(Tj)\x02 EI Q BT (after) Tj ET",
			want:   "after",
		},
		{
			name:   "no text operators",
			stream: "q 100 0 0 100 0 0 cm /Im1 Do Q",
			want:   "",
		},
		{
			name:   "dictionaries ignored",
			stream: "/Span << /ActualText (x) >> BDC BT (y) Tj ET EMC",
			want:   "y",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contentText([]byte(tt.stream)))
		})
	}
}

func TestContentText_Truncated(t *testing.T) {
	assert.NotPanics(t, func() {
		contentText([]byte("BT (unterminated"))
		contentText([]byte("BT <4142"))
		contentText([]byte("BT [(a) (b"))
		contentText([]byte("BI /W 1 ID \x00\x01"))
	})
}
