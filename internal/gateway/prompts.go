package gateway

import "strings"

// Prompt texts for the four gateway operations. Providers attach these to
// the media payloads in their own wire formats.

// BreedPrompt asks for ranked breed predictions plus breed background.
const BreedPrompt = `You are an expert in identifying pet breeds.

Analyze the provided photo and identify the pet's most likely breeds.

Return up to five ranked predictions, each with the breed name and a
confidence score (0-1), most likely first. For the top breed also provide
the typical life span, a summary of common health issues, and describe its
typical behavioral patterns with children, adults, elderly people, its
family, and with strangers.`

// AgePrompt asks for an age range with confidence.
const AgePrompt = `You are an expert in estimating the age of pets from images.
Analyze the provided image and provide an estimated age range.

Return the age range and a confidence level (0-1).`

// BehaviorPromptPrefix precedes the caller-supplied description of the video.
const BehaviorPromptPrefix = `You are an expert animal behaviorist.

You will use this information to analyze the pet's behavior and determine
the likely classifications from the provided video. You will also provide
a confidence level for your analysis.

Description: `

// PetBotSystem is the assistant persona for the chat operation.
const PetBotSystem = `You are a helpful AI assistant for pet owners. Your name is PetGuide.

You answer questions about pet care, and you tailor your responses to the
specific pet based on available information. Answer the question in a
helpful and informative way.`

// BuildPetBotPrompt assembles the user-side prompt for one chat turn,
// including only the context fields that are present.
func BuildPetBotPrompt(req BotRequest) string {
	var b strings.Builder

	b.WriteString("Here's some information about the pet:\n")
	if req.Breed != "" {
		b.WriteString("Breed: " + req.Breed + "\n")
	}
	if req.Age != "" {
		b.WriteString("Age: " + req.Age + "\n")
	}
	if req.Behavior != "" {
		b.WriteString("Behavior: " + req.Behavior + "\n")
	}
	if req.History != "" {
		b.WriteString("\nConversation so far:\n" + req.History + "\n")
	}
	b.WriteString("\nHere's the user's question:\n" + req.Question + "\n")

	return b.String()
}
