package keyboard

import "testing"

func TestInlineButtonsRowsKeepsRawData(t *testing.T) {
	markup := InlineButtonsRows(
		[]InlineBtn{Raw("A", "quiz_answer:A")},
		nil,
		[]InlineBtn{Raw("Next", "quiz_next"), Raw("Close", "start")},
	)
	kb := markup.InlineKeyboard
	if len(kb) != 2 {
		t.Fatalf("rows = %d, want 2", len(kb))
	}
	if kb[0][0].Data != "quiz_answer:A" || kb[0][0].Unique != "" {
		t.Fatalf("first button = %+v", kb[0][0])
	}
	if kb[1][0].Text != "Next" || kb[1][1].Data != "start" {
		t.Fatalf("control row = %+v", kb[1])
	}
}
