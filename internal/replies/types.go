// Package replies holds the mutable conversational configuration: quick-reply
// templates, menu texts, system-detail records, and the runtime settings
// document. Everything here is admin-editable and persisted as whole JSON
// documents.
package replies

import "errors"

// ErrValidation indicates malformed admin input.
var ErrValidation = errors.New("replies: validation failed")

// ErrNotFound indicates an unknown quick-reply or menu identifier.
var ErrNotFound = errors.New("replies: not found")

// QuickReply is a canned answer fired when any trigger phrase appears in an
// inbound message (substring, case-insensitive). The response may contain
// placeholder tokens resolved via Substitute.
type QuickReply struct {
	ID       string   `json:"id" validate:"required"`
	Triggers []string `json:"triggers" validate:"required,min=1,dive,required"`
	Response string   `json:"response" validate:"required"`
}

// SystemDetail describes one product entry reachable from a category menu.
// Key is the composite "menu.digit" dispatch key (for example "accounting.1").
type SystemDetail struct {
	Key         string `json:"key" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	// ImagePath, when set, triggers a side-channel image send alongside the
	// description.
	ImagePath string `json:"image_path,omitempty"`
}

// Document is the replies.json layout: all menu and reply text in one place.
type Document struct {
	CompanyName string                  `json:"company_name"`
	WelcomeText string                  `json:"welcome_text"`
	ContactInfo string                  `json:"contact_info"`
	PricingText string                  `json:"pricing_text"`
	ErrorPrefix string                  `json:"error_prefix"`
	Menus       map[string]string       `json:"menus"`
	QuickReplies []QuickReply           `json:"quick_replies"`
	Systems     map[string]SystemDetail `json:"systems"`
}

// FilterConfig drives the inbound message filter cascade.
type FilterConfig struct {
	Enabled             bool     `json:"enabled"`
	AllowUnknownSenders bool     `json:"allow_unknown_senders"`
	AllowSavedContacts  bool     `json:"allow_saved_contacts"`
	MinMessageLength    int      `json:"min_message_length" validate:"gte=0"`
	ExcludedTokens      []string `json:"excluded_tokens"`
}

// Settings is the settings.json layout. AdvancedFilters is an opaque nested
// map that must survive a save/reload round trip untouched.
type Settings struct {
	AutoReply       bool           `json:"auto_reply"`
	BroadcastTarget string         `json:"broadcast_target"`
	AdminNumbers    []string       `json:"admin_numbers"`
	Filter          FilterConfig   `json:"filter"`
	AdvancedFilters map[string]any `json:"advancedFilters,omitempty"`
}

// UpdateSettingsRequest is the admin payload for partial settings updates.
// Nil pointers leave the current value untouched.
type UpdateSettingsRequest struct {
	AutoReply           *bool          `json:"auto_reply,omitempty"`
	BroadcastTarget     *string        `json:"broadcast_target,omitempty"`
	AdminNumbers        []string       `json:"admin_numbers,omitempty"`
	FilterEnabled       *bool          `json:"filter_enabled,omitempty"`
	AllowUnknownSenders *bool          `json:"allow_unknown_senders,omitempty"`
	AllowSavedContacts  *bool          `json:"allow_saved_contacts,omitempty"`
	MinMessageLength    *int           `json:"min_message_length,omitempty"`
	ExcludedTokens      []string       `json:"excluded_tokens,omitempty"`
	AdvancedFilters     map[string]any `json:"advancedFilters,omitempty"`
}

// Menu identifiers shared with the conversation router.
const (
	MenuMain       = "main"
	MenuAccounting = "accounting"
	MenuExchange   = "exchange"
	MenuDesign     = "design"
)

// DefaultDocument seeds replies.json on first start. The Arabic texts are the
// production defaults of the assistant.
func DefaultDocument() Document {
	return Document{
		CompanyName: "إبداع سوفت",
		WelcomeText: "أهلاً بك في {company_name}! كيف يمكننا مساعدتك اليوم؟",
		ContactInfo: "للتواصل معنا مباشرة: واتساب أو اتصال على هذا الرقم.",
		PricingText: "للحصول على الأسعار التفصيلية، اختر النظام المطلوب وسنرسل لك التفاصيل مباشرة.",
		ErrorPrefix: "عذراً، خيار غير صحيح.",
		Menus: map[string]string{
			MenuMain: "مرحباً بك في {company_name} 👋\n" +
				"1️⃣ الأنظمة المحاسبية\n" +
				"2️⃣ أنظمة الصرافة\n" +
				"3️⃣ خدمات التصميم\n" +
				"4️⃣ الأسعار\n" +
				"5️⃣ تواصل معنا\n" +
				"6️⃣ الإبلاغ عن مشكلة\n" +
				"0️⃣ رجوع",
			MenuAccounting: "الأنظمة المحاسبية:\n1. نظام المبيعات\n2. نظام المخازن\n3. نظام الحسابات العامة\n0. رجوع",
			MenuExchange:   "أنظمة الصرافة:\n1. نظام الحوالات\n2. نظام الصرف الآلي\n0. رجوع",
			MenuDesign:     "خدمات التصميم:\n1. تصميم مواقع\n2. تصميم هوية بصرية\n3. تصميم بالذكاء الاصطناعي\n0. رجوع",
		},
		QuickReplies: []QuickReply{
			{ID: "greeting", Triggers: []string{"مرحبا", "اهلا"}, Response: "{welcome_text}\n\n{main_menu}"},
			{ID: "salam", Triggers: []string{"السلام عليكم"}, Response: "وعليكم السلام ورحمة الله وبركاته! كيف يمكنني مساعدتك؟\n\n{main_menu}"},
			{ID: "services", Triggers: []string{"خدمات"}, Response: "نحن في {company_name} نقدم: أنظمة محاسبية وإدارية، تصميم مواقع، تطبيقات أندرويد، تسويق إلكتروني، SEO، رفع واستضافة مواقع، تصميم صور بالذكاء الاصطناعي."},
			{ID: "pricing", Triggers: []string{"سعر"}, Response: "للحصول على الأسعار التفصيلية، يمكنك طلب التفاصيل وسأرسلها لك مباشرة."},
			{ID: "thanks", Triggers: []string{"شكرا"}, Response: "العفو! نحن هنا لخدمتك. هل تحتاج أي مساعدة أخرى؟"},
		},
		Systems: map[string]SystemDetail{
			"accounting.1": {Key: "accounting.1", Title: "نظام المبيعات", Description: "نظام متكامل لإدارة المبيعات والفواتير والعملاء."},
			"accounting.2": {Key: "accounting.2", Title: "نظام المخازن", Description: "إدارة المخزون والجرد والتنبيهات عند انخفاض الكميات."},
			"accounting.3": {Key: "accounting.3", Title: "نظام الحسابات العامة", Description: "دفتر أستاذ عام وقيود يومية وتقارير مالية."},
			"exchange.1":   {Key: "exchange.1", Title: "نظام الحوالات", Description: "إدارة الحوالات الداخلية والخارجية مع إشعارات فورية."},
			"exchange.2":   {Key: "exchange.2", Title: "نظام الصرف الآلي", Description: "تحديث أسعار الصرف وإدارة العمليات اليومية."},
			"design.1":     {Key: "design.1", Title: "تصميم مواقع", Description: "مواقع متجاوبة مع لوحة تحكم كاملة."},
			"design.2":     {Key: "design.2", Title: "تصميم هوية بصرية", Description: "شعارات وهويات بصرية احترافية."},
			"design.3":     {Key: "design.3", Title: "تصميم بالذكاء الاصطناعي", Description: "تصميم صور وإعلانات بالذكاء الاصطناعي."},
		},
	}
}

// DefaultSettings seeds settings.json on first start.
func DefaultSettings() Settings {
	return Settings{
		AutoReply:       true,
		BroadcastTarget: "",
		AdminNumbers:    []string{},
		Filter: FilterConfig{
			Enabled:             true,
			AllowUnknownSenders: true,
			AllowSavedContacts:  true,
			// 1 keeps single-digit menu replies flowing; raising this is an
			// admin decision.
			MinMessageLength:    1,
			ExcludedTokens:      []string{},
		},
	}
}
