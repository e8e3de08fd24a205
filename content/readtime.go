package content

import "strings"

// WordsPerMinute is the reading speed behind EstimateReadTime.
const WordsPerMinute = 200

// EstimateReadTime returns the minutes needed to read post, rounded up:
// every heading and body fragment is split on whitespace and the total is
// divided by WordsPerMinute.
func EstimateReadTime(post Post) int {
	return (CountWords(post) + WordsPerMinute - 1) / WordsPerMinute
}

// CountWords sums the words of every heading and body fragment.
func CountWords(post Post) int {
	total := 0
	for _, block := range post.Data.Content {
		total += len(strings.Fields(block.Heading))
		for _, fragment := range block.Body {
			total += len(strings.Fields(fragment.Text))
		}
	}
	return total
}
