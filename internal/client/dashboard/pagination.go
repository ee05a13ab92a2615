package dashboard

const windowSize = 5

// PageWindow returns at most five page numbers around current, all within [1,total].
func PageWindow(current, total int) []int {
	if total < 1 {
		total = 1
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	start := max(1, current-2)
	end := min(total, start+windowSize-1)
	start = max(1, end-windowSize+1)

	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}

func clampPage(page, total int) int {
	if total < 1 {
		total = 1
	}
	return min(max(page, 1), total)
}
