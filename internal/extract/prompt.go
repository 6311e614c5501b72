package extract

import "fmt"

// instructionFormat asks the assistant to restate the itinerary in the tag
// grammar understood by Scan. %s is the trip name.
const instructionFormat = "What is the end date? If no end time, explicitly state 'End Time: TBD' instead of leaving it empty. " +
	"Show me my itinerary for %s. " +
	"Please format it with these tags: [start]Activity: [activity]; Location: [location]; Start Time: [start_time]; End Time: [end_time][end]. " +
	"Specify the location only by city name, not full address. " +
	"Format the dates like this: h:mm a 'on' MMMM d, yyyy. " +
	"Here are some examples: " +
	"[start]Activity: Dinner with family; Location: Boise; Start Time: 9:00 PM on July 21, 2022; End Time: TBD[end]" +
	"[start]Activity: Dinner with uncle; Location: Boise; Start Time: 5:00 PM on July 22, 2022; End Time: TBD[end]"

// Instruction returns the hidden prompt sent on itinerary refresh turns.
func Instruction(tripName string) string {
	return fmt.Sprintf(instructionFormat, tripName)
}
