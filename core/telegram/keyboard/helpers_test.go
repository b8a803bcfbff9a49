package keyboard

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestCancelButton(t *testing.T) {
	markup := &tele.ReplyMarkup{}
	btn := CancelButton(markup, "flow_cancel").Inline()
	if btn.Unique != "flow_cancel" {
		t.Errorf("unique = %q", btn.Unique)
	}
	if btn.Data != "cancel" {
		t.Errorf("payload = %q", btn.Data)
	}
	if btn.Text != defaultCancelButtonText {
		t.Errorf("text = %q", btn.Text)
	}

	custom := CancelButton(markup, "abort", "back", "⬅️ Back").Inline()
	if custom.Data != "back" || custom.Text != "⬅️ Back" {
		t.Errorf("overrides not applied: %+v", custom)
	}
}

func TestInlineButtonsNPerRow(t *testing.T) {
	buttons := []InlineBtn{
		{Text: "a", Unique: "u"},
		{Text: "b", Unique: "u"},
		{Text: "c", Unique: "u"},
		{Text: "d", Unique: "u"},
		{Text: "e", Unique: "u"},
	}
	markup := InlineButtonsNPerRow(buttons, 2)
	rows := markup.InlineKeyboard
	if len(rows) != 3 {
		t.Fatalf("rows = %d", len(rows))
	}
	if len(rows[0]) != 2 || len(rows[1]) != 2 || len(rows[2]) != 1 {
		t.Fatalf("row sizes = %d/%d/%d", len(rows[0]), len(rows[1]), len(rows[2]))
	}

	// n <= 1 degrades to one button per row.
	markup = InlineButtonsNPerRow(buttons[:2], 1)
	if len(markup.InlineKeyboard) != 2 {
		t.Fatalf("one-per-row rows = %d", len(markup.InlineKeyboard))
	}
}

func TestInlineButtonsRowsCarriesData(t *testing.T) {
	markup := InlineButtonsRows([]InlineBtn{{Text: "✏️ Edit", Unique: "lst_edit", Data: "42"}})
	btn := markup.InlineKeyboard[0][0]
	if btn.Unique != "lst_edit" || btn.Data != "42" || btn.Text != "✏️ Edit" {
		t.Fatalf("button = %+v", btn)
	}
}

func TestContactRequest(t *testing.T) {
	markup := ContactRequest("📱 Share phone")
	if !markup.OneTimeKeyboard || !markup.ResizeKeyboard {
		t.Error("contact keyboard must be one-time and resized")
	}
	if len(markup.ReplyKeyboard) != 1 || len(markup.ReplyKeyboard[0]) != 1 {
		t.Fatalf("keyboard shape = %+v", markup.ReplyKeyboard)
	}
	btn := markup.ReplyKeyboard[0][0]
	if !btn.Contact || btn.Text != "📱 Share phone" {
		t.Fatalf("button = %+v", btn)
	}
}

func TestRemoveKeyboard(t *testing.T) {
	if !RemoveKeyboard().RemoveKeyboard {
		t.Error("RemoveKeyboard must set the remove flag")
	}
}
