package constant

import (
	"hana-assistant-be/pkg/assistant"
	"hana-assistant-be/pkg/i18n"
)

// Message keys of the HTTP and socket shells.
const (
	KeySurfaceNotFound = "surface.not_found"
	KeyPaymentDisabled = "payment.disabled"
	KeyContinueBlocked = "assistant.continue_blocked"
)

// Catalog is the user-facing text of the assistant in every supported language.
var Catalog = i18n.Catalog{
	i18n.English: {
		assistant.KeyGreeting:            "Hello! I am HANA, your halal certification assistant. How can I help you today?",
		assistant.KeyFallback:            "Sorry, I am having trouble answering right now. Please try again in a moment.",
		assistant.KeyTranscriptTitle:     "HANA Chat Transcript",
		assistant.KeyTranscriptGenerated: "Generated",
		assistant.KeyTranscriptUser:      "USER",
		assistant.KeyTranscriptAssistant: "HANA",
		KeySurfaceNotFound:               "Chat surface not found",
		KeyPaymentDisabled:               "Payment is not enabled",
		KeyContinueBlocked:               "Payment is required to continue",
	},
	i18n.Indonesian: {
		assistant.KeyGreeting:            "Halo! Saya HANA, asisten sertifikasi halal Anda. Ada yang bisa saya bantu hari ini?",
		assistant.KeyFallback:            "Maaf, saya sedang kesulitan menjawab. Silakan coba lagi sebentar lagi.",
		assistant.KeyTranscriptTitle:     "Transkrip Obrolan HANA",
		assistant.KeyTranscriptGenerated: "Dibuat",
		assistant.KeyTranscriptUser:      "PENGGUNA",
		assistant.KeyTranscriptAssistant: "HANA",
		KeySurfaceNotFound:               "Sesi obrolan tidak ditemukan",
		KeyPaymentDisabled:               "Pembayaran tidak diaktifkan",
		KeyContinueBlocked:               "Pembayaran diperlukan untuk melanjutkan",
	},
}
