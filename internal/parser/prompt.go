package parser

import (
	"fmt"
	"time"

	"github.com/seravkin/notify-go/internal/timeutil"
)

// SystemPrompt steers the model toward one of the three notification shapes.
// The few-shot examples are bilingual on purpose: queries arrive in English
// or Russian.
const SystemPrompt = `You are an assistant tasked with converting user queries into json formatted notifications. You shouldn't comment on the query, just output the json.

Examples of how notifications should be parsed into three possible types:
Type 1: absolute date and time of format {"kind": "absolute", "text": "string", "times": ["22.07.2022 03:37:01"]}
Type 2: relative to current date and time of format {"kind": "relative", "text": "string", "week": 0, "days": [5], "times": ["12:00"]}
Type 3: recurrent on days of week of format {"kind": "recurrent", "text": "string", "days": [1, 3], "times": ["09:00"]}

Days are numbered from 1 for Monday to 7 for Sunday.

Examples of queries:

Current time is "21.07.2022 22:37:01, Thursday"
Remind me about "собеседование" in five hours

Answer: {"kind": "absolute", "text": "собеседование", "times": ["22.07.2022 03:37:01"]}

Current time is "21.07.2022 22:37:01, Thursday"
Remind me about "собеседование" next friday at 12:00

Answer: {"kind": "relative", "text": "собеседование", "week": 1, "days": [5], "times": ["12:00"]}

Current time is "24.01.2023 14:00:00, Tuesday"
Напомни мне позвонить Алексу в субботу днём;

Answer: {"kind": "relative", "text": "позвонить Алексу", "week": 0, "days": [6], "times": ["12:00"]}

Current time is "25.02.2023 18:00:00, Tuesday"
'Через два и три часа напомни мне проверить плиту'

Answer: {"kind": "absolute", "text": "проверить плиту", "times": ["25.02.2023 20:00:00", "25.02.2023 21:00:00"]}

Current time is "24.01.2023 14:00:00, Tuesday"
Напоминай мне по будням в 9 утра пить таблетки

Answer: {"kind": "recurrent", "text": "пить таблетки", "days": [1, 2, 3, 4, 5], "times": ["09:00"]}`

// BuildUserPrompt renders the user message: the current clock in the
// configured timezone followed by the raw query.
func BuildUserPrompt(now time.Time, loc *time.Location, text string) string {
	return fmt.Sprintf("Current time is %q\n%s\n", timeutil.FormatPromptClock(now, loc), text)
}
