package replies

import (
	"errors"
	"testing"
)

func TestSettingsRoundTripKeepsAdvancedFilters(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc := NewService(nil, dir)
	if err := svc.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	enabled := false
	_, err := svc.UpdateSettings(UpdateSettingsRequest{
		FilterEnabled: &enabled,
		AdvancedFilters: map[string]any{
			"working_hours": map[string]any{"from": "09:00", "to": "17:00"},
		},
	})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}

	// A fresh service over the same directory must see the saved keys over
	// defaults, with the opaque nested map intact.
	reloaded := NewService(nil, dir)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	settings := reloaded.Settings()
	if settings.Filter.Enabled {
		t.Fatalf("saved filter_enabled=false lost on reload")
	}
	if !settings.AutoReply {
		t.Fatalf("untouched auto_reply default lost on reload")
	}
	nested, ok := settings.AdvancedFilters["working_hours"].(map[string]any)
	if !ok {
		t.Fatalf("advancedFilters nested map lost: %#v", settings.AdvancedFilters)
	}
	if nested["from"] != "09:00" {
		t.Fatalf("nested value changed: %#v", nested)
	}
}

func TestUpdateSettingsPartialMerge(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, t.TempDir())
	target := "123@s.whatsapp.net"
	settings, err := svc.UpdateSettings(UpdateSettingsRequest{BroadcastTarget: &target})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if settings.BroadcastTarget != target {
		t.Fatalf("broadcast target not applied: %q", settings.BroadcastTarget)
	}
	if !settings.Filter.Enabled || settings.Filter.MinMessageLength != 1 {
		t.Fatalf("absent fields must keep defaults: %+v", settings.Filter)
	}
}

func TestUpdateSettingsRejectsNegativeMinLength(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, t.TempDir())
	bad := -1
	if _, err := svc.UpdateSettings(UpdateSettingsRequest{MinMessageLength: &bad}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUpsertQuickReplyValidation(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, t.TempDir())
	if err := svc.UpsertQuickReply(QuickReply{ID: "x"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing triggers, got %v", err)
	}
	reply := QuickReply{ID: "promo", Triggers: []string{"عرض خاص"}, Response: "تفاصيل العرض"}
	if err := svc.UpsertQuickReply(reply); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	reply.Response = "نص جديد"
	if err := svc.UpsertQuickReply(reply); err != nil {
		t.Fatalf("replace: %v", err)
	}
	count := 0
	for _, qr := range svc.Replies().QuickReplies {
		if qr.ID == "promo" {
			count++
			if qr.Response != "نص جديد" {
				t.Fatalf("replace did not take: %q", qr.Response)
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one promo entry, got %d", count)
	}
}

func TestDeleteQuickReplyNotFound(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, t.TempDir())
	if err := svc.DeleteQuickReply("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetMenuTextUnknownMenu(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, t.TempDir())
	if err := svc.SetMenuText("nope", "text"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.SetMenuText(MenuMain, "قائمة معدلة"); err != nil {
		t.Fatalf("set menu: %v", err)
	}
	if svc.Replies().Menus[MenuMain] != "قائمة معدلة" {
		t.Fatalf("menu text not applied")
	}
}
