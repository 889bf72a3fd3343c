package summarize

// instruction is sent as the system prompt for generated summaries. It asks
// for the same sections the rule template produces so that both strategies
// yield comparable layers.
const instruction = "You are compressing a sales discovery conversation for a downstream assistant that will continue it. " +
	"Write a concise, decision-oriented summary of what the customer needs. " +
	"Favor evolving requirements: when the customer changes their mind, keep only the latest position and note that it changed. " +
	"Cover pain points, requirements and preferences, hard constraints, and timeline, then any future considerations. " +
	"Use short plain-text sections with those headings and bullet points under each. " +
	"Keep concrete numbers, names, amounts and dates exactly as stated. " +
	"Do not invent facts, do not give recommendations, and omit greetings and filler. " +
	"Answer in the language the customer used."

// Instruction returns the prompt used for generated summaries.
func Instruction() string {
	return instruction
}
