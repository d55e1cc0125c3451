// Package i18n holds the user facing strings in English and Bengali.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Locale is a supported UI language.
type Locale string

const (
	English Locale = "en"
	Bengali Locale = "bn"
)

// Default is used when nothing in the request matches.
const Default = Bengali

// Message keys.
const (
	MsgNoImageReturned = "edit.no_image"
	MsgServiceDown     = "edit.service_down"
	MsgCrash           = "app.crash"
	MsgEmptyPrompt     = "edit.empty_prompt"
	MsgNoImage         = "edit.no_source"
	MsgBusy            = "edit.busy"
	MsgMalformedImage  = "upload.malformed"
	MsgRateLimited     = "edit.rate_limited"
)

var catalog = map[Locale]map[string]string{
	English: {
		MsgNoImageReturned: "The image could not be generated. Please rephrase your instruction.",
		MsgServiceDown:     "The AI service is not working right now.",
		MsgCrash:           "Something went wrong. Please restart the app.",
		MsgEmptyPrompt:     "Please describe the edit you want.",
		MsgNoImage:         "Upload a photo first.",
		MsgBusy:            "An edit is already in progress.",
		MsgMalformedImage:  "That file is not a supported image.",
		MsgRateLimited:     "Too many edits. Please wait a moment.",
	},
	Bengali: {
		MsgNoImageReturned: "ইমেজটি জেনারেট করা যায়নি। প্রম্পটটি অন্যভাবে দিন।",
		MsgServiceDown:     "এআই সার্ভিস কাজ করছে না।",
		MsgCrash:           "কিছু একটা ভুল হয়েছে। অ্যাপটি রিস্টার্ট করুন।",
		MsgEmptyPrompt:     "কী পরিবর্তন করতে চান লিখুন।",
		MsgNoImage:         "প্রথমে একটি ছবি আপলোড করুন।",
		MsgBusy:            "একটি এডিট ইতিমধ্যে চলছে।",
		MsgMalformedImage:  "ফাইলটি সমর্থিত ছবি নয়।",
		MsgRateLimited:     "অনেক বেশি এডিট। একটু অপেক্ষা করুন।",
	},
}

var matcher = language.NewMatcher([]language.Tag{language.Bengali, language.English})

// T returns the message for key in locale, falling back to English and then
// to the key itself.
func T(l Locale, key string) string {
	if m, ok := catalog[l]; ok {
		if s, ok := m[key]; ok {
			return s
		}
	}
	if s, ok := catalog[English][key]; ok {
		return s
	}
	return key
}

// Parse normalizes a locale string such as "bn-BD" or "EN". ok is false for
// unsupported languages.
func Parse(s string) (Locale, bool) {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	switch base.String() {
	case "en":
		return English, true
	case "bn":
		return Bengali, true
	}
	return "", false
}

// Match picks the best supported locale for an Accept-Language header.
func Match(acceptLanguage string) Locale {
	if strings.TrimSpace(acceptLanguage) == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	if idx == 1 {
		return English
	}
	return Bengali
}
