// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"time"
)

// Site setting keys.
const (
	SettingSiteInfo        = "site_info"
	SettingContactInfo     = "contact_info"
	SettingSocialMedia     = "social_media"
	SettingPaymentSettings = "payment_settings"
	SettingSEOSettings     = "seo_settings"
)

// SettingKeys lists the editable settings in display order.
var SettingKeys = []string{
	SettingSiteInfo, SettingContactInfo, SettingSocialMedia,
	SettingPaymentSettings, SettingSEOSettings,
}

// SettingFields lists the form fields stored for each settings key.
var SettingFields = map[string][]string{
	SettingSiteInfo:        {"site_name", "tagline", "description", "about", "logo_url"},
	SettingContactInfo:     {"email", "phone", "whatsapp", "address", "office_hours"},
	SettingSocialMedia:     {"instagram", "facebook", "youtube", "tiktok", "twitter"},
	SettingPaymentSettings: {"bank_name", "account_number", "account_name", "payment_instructions"},
	SettingSEOSettings:     {"meta_title", "meta_description", "meta_keywords", "og_image"},
}

// IsPublicSetting reports whether the key may be read without signing in.
func IsPublicSetting(key string) bool {
	return key != SettingPaymentSettings
}

// IsValidSettingKey reports whether key is one of SettingKeys.
func IsValidSettingKey(key string) bool {
	_, ok := SettingFields[key]
	return ok
}

// SiteSetting is a key/value configuration blob.
type SiteSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"` // JSON object
	IsPublic  bool      `json:"is_public"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Fields decodes the JSON value into a string map.
// An empty or malformed value yields an empty map.
func (s SiteSetting) Fields() map[string]string {
	fields := make(map[string]string)
	if s.Value == "" {
		return fields
	}
	_ = json.Unmarshal([]byte(s.Value), &fields)
	return fields
}

// Settings is a lookup of decoded settings by key.
type Settings map[string]map[string]string

// Get returns a single field, or "" when absent.
func (s Settings) Get(key, field string) string {
	if fields, ok := s[key]; ok {
		return fields[field]
	}
	return ""
}
