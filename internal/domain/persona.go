// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package domain

import "strings"

// =============================================================================
// PERSONA TABLE
// =============================================================================

// Persona is the per-domain prompt configuration sent with every request.
type Persona struct {
	Instruction  string
	QuickReplies []string
}

var personas = map[ID]Persona{
	Cars: {
		Instruction: "You are a car expert chatting with a friend. Keep it super casual and simple. No formal stuff, no long lists, and definitely no markdown like asterisks. Just give straight-up, easy-to-understand info on cars. Let's just talk.",
		QuickReplies: []string{
			"Top 3 sports cars under $50k?",
			"Compare the 2024 Honda Civic and Toyota Corolla.",
			"What is the range of a Tesla Model 3?",
			"Best family SUVs for safety?",
		},
	},
	Anime: {
		Instruction: "You're an anime fan talking to a friend. Keep it chill and simple. No formalities, no long lists, and don't use markdown like asterisks. Just chat about anime, share what's cool, and keep it fun and easy to follow. Let's just have a normal convo.",
		QuickReplies: []string{
			"Recommend a good starter anime.",
			`What is "Attack on Titan" about?`,
			"Top 5 anime movies of all time?",
			"Explain the difference between shonen and seinen.",
		},
	},
	Manga: {
		Instruction: "You're a manga enthusiast chatting with a buddy. Be super casual and keep it simple. No formal language, no big lists, and avoid using markdown asterisks. Just talk about manga like you would with a friend. Let's keep it relaxed.",
		QuickReplies: []string{
			`Is the "Berserk" manga finished?`,
			"Best-selling manga series ever?",
			"Recommend a completed manga series.",
			`What is "One Piece" about?`,
		},
	},
	Bikes: {
		Instruction: "You're a bike pro talking to a friend. Keep the vibe super relaxed and simple. No formal stuff, no long lists, and no markdown like asterisks. Just chat about bikes, give clear advice, and make it feel like a regular conversation. Let's just talk bikes.",
		QuickReplies: []string{
			"Best entry-level road bike?",
			"Compare Ducati Panigale V4 and BMW S1000RR.",
			"What are the advantages of an e-bike?",
			"How often should I service my motorcycle?",
		},
	},
}

// PersonaFor returns the persona for id. Unknown ids get an empty persona.
func PersonaFor(id ID) Persona {
	p, ok := personas[id]
	if !ok {
		return Persona{}
	}
	replies := make([]string, len(p.QuickReplies))
	copy(replies, p.QuickReplies)
	return Persona{Instruction: p.Instruction, QuickReplies: replies}
}

// QuickReply returns the n-th (zero-based) quick reply for id.
func QuickReply(id ID, n int) (string, bool) {
	p, ok := personas[id]
	if !ok || n < 0 || n >= len(p.QuickReplies) {
		return "", false
	}
	return p.QuickReplies[n], true
}

// =============================================================================
// CANNED MODEL TEXT
// =============================================================================

// ErrorText replaces a model reply whose request failed.
const ErrorText = "An error occurred. Please try again."

const (
	greetingPrefix   = "Hey there!"
	regreetingPrefix = "Alright, let's talk"
)

// Greeting is the opening model message of a new conversation.
func Greeting(id ID) string {
	return greetingPrefix + " I'm ready to chat about " + NameOf(id, "the current topic") + ". What's on your mind?"
}

// Regreeting replaces the greeting when an untouched conversation is moved
// to another domain.
func Regreeting(id ID) string {
	return regreetingPrefix + " about " + NameOf(id, "the new topic") + "! Ask me anything."
}

// IsLegacyGreeting reports whether content looks like a greeting written by
// an older client that did not flag greetings explicitly.
func IsLegacyGreeting(content string) bool {
	return strings.HasPrefix(content, greetingPrefix) || strings.HasPrefix(content, regreetingPrefix)
}
