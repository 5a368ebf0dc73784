package postprocess

import (
	"math"
)

// softmax2 normalises a raw 2-way confidence pair and returns the
// probability of the second (foreground) class
func softmax2(logits []float32) float32 {

	// subtract the max logit so the exponentials cannot overflow
	m := maxf(logits[0], logits[1])

	e0 := float32(math.Exp(float64(logits[0] - m)))
	e1 := float32(math.Exp(float64(logits[1] - m)))

	return e1 / (e0 + e1)
}

// quickSortIndiceInverse is a quick sort algorithm that sorts the
// confidence vector in descending order and synchronously updates the
// indices vector to track the reordering of elements
func quickSortIndiceInverse(input []float32, left int, right int, indices []int) int {

	var key float32
	var keyIndex int

	low := left
	high := right

	if left < right {
		keyIndex = indices[left]
		key = input[left]

		for low < high {
			for low < high && input[high] <= key {
				high--
			}

			input[low] = input[high]
			indices[low] = indices[high]

			for low < high && input[low] >= key {
				low++
			}

			input[high] = input[low]
			indices[high] = indices[low]
		}

		input[low] = key
		indices[low] = keyIndex

		quickSortIndiceInverse(input, left, low-1, indices)
		quickSortIndiceInverse(input, low+1, right, indices)
	}

	return low
}
