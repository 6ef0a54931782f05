package scoring

// Encouragement picks a message for the day's points.
func Encouragement(daily int) string {
	switch {
	case daily >= 15:
		return "🌟 Outstanding day! Keep this momentum going."
	case daily >= 10:
		return "💪 A solid, productive day. Keep it up tomorrow!"
	case daily >= 5:
		return "😊 Progress made today. Consistency wins, aim a little higher tomorrow."
	case daily >= 0:
		return "🤗 That's okay, learning is a long game. Reset and start fresh tomorrow."
	default:
		return "💝 A low day is only temporary. Believe in yourself, tomorrow will be better."
	}
}
