package replies

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ebdaasoft/whatsdesk/internal/store"
)

// Service is the injected configuration service: it owns the live replies and
// settings documents, persists them wholesale on every mutation, and exposes
// an explicit Reload instead of ambient shared state.
type Service struct {
	logger      *slog.Logger
	repliesDoc  *store.Document[Document]
	settingsDoc *store.Document[json.RawMessage]
	validate    *validator.Validate

	mu       sync.RWMutex
	replies  Document
	settings Settings
}

// NewService creates the service rooted at dataRoot. Documents are loaded
// lazily by Load; until then defaults are live.
func NewService(log *slog.Logger, dataRoot string) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		logger:      log.With(slog.String("service", "replies")),
		repliesDoc:  store.NewDocument[Document](filepath.Join(dataRoot, "replies.json")),
		settingsDoc: store.NewDocument[json.RawMessage](filepath.Join(dataRoot, "settings.json")),
		validate:    validator.New(),
		replies:     DefaultDocument(),
		settings:    DefaultSettings(),
	}
}

// Load reads both documents from disk, merging saved keys over defaults.
// Missing files leave the seeded defaults live and persist them.
func (s *Service) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc, err := s.repliesDoc.Load(); err == nil {
		s.replies = mergeDocument(DefaultDocument(), doc)
	} else if store.IsNotExist(err) {
		if saveErr := s.repliesDoc.Save(s.replies); saveErr != nil {
			s.logger.Warn("seed replies document failed", slog.Any("error", saveErr))
		}
	} else {
		s.logger.Error("load replies document failed", slog.Any("error", err))
	}

	if raw, err := s.settingsDoc.Load(); err == nil {
		// Decoding over the defaults gives saved-keys-override-defaults
		// semantics; unknown nested maps like advancedFilters survive as-is.
		merged := DefaultSettings()
		if decodeErr := json.Unmarshal(raw, &merged); decodeErr != nil {
			s.logger.Error("decode settings failed", slog.Any("error", decodeErr))
		} else {
			s.settings = merged
		}
	} else if store.IsNotExist(err) {
		if saveErr := s.saveSettingsLocked(); saveErr != nil {
			s.logger.Warn("seed settings document failed", slog.Any("error", saveErr))
		}
	} else {
		s.logger.Error("load settings failed", slog.Any("error", err))
	}
	return nil
}

// Reload rereads both documents, picking up edits written by the admin
// surface out of band.
func (s *Service) Reload() error {
	s.logger.Info("reload configuration")
	return s.Load()
}

// Replies returns a snapshot of the live replies document.
func (s *Service) Replies() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDocument(s.replies)
}

// Settings returns a snapshot of the live settings.
func (s *Service) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSettings(s.settings)
}

// FilterConfig returns the live filter configuration. Read on every inbound
// message.
func (s *Service) FilterConfig() FilterConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.settings.Filter
	cfg.ExcludedTokens = append([]string(nil), cfg.ExcludedTokens...)
	return cfg
}

// UpsertQuickReply validates and stores a quick reply, replacing any entry
// with the same ID.
func (s *Service) UpsertQuickReply(reply QuickReply) error {
	if err := s.validate.Struct(reply); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	replaced := false
	for i, existing := range s.replies.QuickReplies {
		if existing.ID == reply.ID {
			s.replies.QuickReplies[i] = reply
			replaced = true
			break
		}
	}
	if !replaced {
		s.replies.QuickReplies = append(s.replies.QuickReplies, reply)
	}
	return s.saveRepliesLocked()
}

// DeleteQuickReply removes the quick reply with the given ID.
func (s *Service) DeleteQuickReply(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.replies.QuickReplies {
		if existing.ID == id {
			s.replies.QuickReplies = append(s.replies.QuickReplies[:i], s.replies.QuickReplies[i+1:]...)
			return s.saveRepliesLocked()
		}
	}
	return fmt.Errorf("%w: quick reply %s", ErrNotFound, id)
}

// SetMenuText updates the text of one menu.
func (s *Service) SetMenuText(menuID, text string) error {
	menuID = strings.TrimSpace(menuID)
	if menuID == "" || strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: menu id and text are required", ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.replies.Menus[menuID]; !ok {
		return fmt.Errorf("%w: menu %s", ErrNotFound, menuID)
	}
	s.replies.Menus[menuID] = text
	return s.saveRepliesLocked()
}

// UpsertSystem validates and stores a system-detail record under its
// composite key.
func (s *Service) UpsertSystem(detail SystemDetail) error {
	if err := s.validate.Struct(detail); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replies.Systems == nil {
		s.replies.Systems = map[string]SystemDetail{}
	}
	s.replies.Systems[detail.Key] = detail
	return s.saveRepliesLocked()
}

// UpdateSettings applies a partial update and persists the merged settings.
func (s *Service) UpdateSettings(req UpdateSettingsRequest) (Settings, error) {
	if req.MinMessageLength != nil && *req.MinMessageLength < 0 {
		return Settings{}, fmt.Errorf("%w: min_message_length must be >= 0", ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.AutoReply != nil {
		s.settings.AutoReply = *req.AutoReply
	}
	if req.BroadcastTarget != nil {
		s.settings.BroadcastTarget = strings.TrimSpace(*req.BroadcastTarget)
	}
	if req.AdminNumbers != nil {
		s.settings.AdminNumbers = append([]string(nil), req.AdminNumbers...)
	}
	if req.FilterEnabled != nil {
		s.settings.Filter.Enabled = *req.FilterEnabled
	}
	if req.AllowUnknownSenders != nil {
		s.settings.Filter.AllowUnknownSenders = *req.AllowUnknownSenders
	}
	if req.AllowSavedContacts != nil {
		s.settings.Filter.AllowSavedContacts = *req.AllowSavedContacts
	}
	if req.MinMessageLength != nil {
		s.settings.Filter.MinMessageLength = *req.MinMessageLength
	}
	if req.ExcludedTokens != nil {
		s.settings.Filter.ExcludedTokens = append([]string(nil), req.ExcludedTokens...)
	}
	if req.AdvancedFilters != nil {
		s.settings.AdvancedFilters = req.AdvancedFilters
	}
	if err := s.saveSettingsLocked(); err != nil {
		s.logger.Error("save settings failed", slog.Any("error", err))
	}
	return cloneSettings(s.settings), nil
}

func (s *Service) saveRepliesLocked() error {
	if err := s.repliesDoc.Save(s.replies); err != nil {
		// In-memory state stays authoritative; persistence failure is
		// logged, not surfaced to chat users.
		s.logger.Error("save replies failed", slog.Any("error", err))
		return nil
	}
	return nil
}

func (s *Service) saveSettingsLocked() error {
	raw, err := json.Marshal(s.settings)
	if err != nil {
		return err
	}
	return s.settingsDoc.Save(raw)
}

func mergeDocument(base, saved Document) Document {
	out := saved
	if strings.TrimSpace(out.CompanyName) == "" {
		out.CompanyName = base.CompanyName
	}
	if strings.TrimSpace(out.WelcomeText) == "" {
		out.WelcomeText = base.WelcomeText
	}
	if strings.TrimSpace(out.ContactInfo) == "" {
		out.ContactInfo = base.ContactInfo
	}
	if strings.TrimSpace(out.PricingText) == "" {
		out.PricingText = base.PricingText
	}
	if strings.TrimSpace(out.ErrorPrefix) == "" {
		out.ErrorPrefix = base.ErrorPrefix
	}
	if len(out.Menus) == 0 {
		out.Menus = base.Menus
	} else {
		for id, text := range base.Menus {
			if _, ok := out.Menus[id]; !ok {
				out.Menus[id] = text
			}
		}
	}
	if len(out.QuickReplies) == 0 {
		out.QuickReplies = base.QuickReplies
	}
	if len(out.Systems) == 0 {
		out.Systems = base.Systems
	}
	return out
}

func cloneDocument(doc Document) Document {
	out := doc
	out.Menus = make(map[string]string, len(doc.Menus))
	for id, text := range doc.Menus {
		out.Menus[id] = text
	}
	out.QuickReplies = append([]QuickReply(nil), doc.QuickReplies...)
	out.Systems = make(map[string]SystemDetail, len(doc.Systems))
	for key, detail := range doc.Systems {
		out.Systems[key] = detail
	}
	return out
}

func cloneSettings(settings Settings) Settings {
	out := settings
	out.AdminNumbers = append([]string(nil), settings.AdminNumbers...)
	out.Filter.ExcludedTokens = append([]string(nil), settings.Filter.ExcludedTokens...)
	if settings.AdvancedFilters != nil {
		out.AdvancedFilters = make(map[string]any, len(settings.AdvancedFilters))
		for key, value := range settings.AdvancedFilters {
			out.AdvancedFilters[key] = value
		}
	}
	return out
}
