package bt

// Ceil performs integer division and always rounds up
// It performs a + b - 1 / b since that is faster than
// than converting it to floats for math.Ceil
func Ceil(a, b int) int {
	return (a + b - 1) / b
}
