package crossval

// Partition splits document indices 0..n-1 into k test sets: a true
// partition, contiguous in document order, with the remainder spread over
// the leading folds. Every document lands in exactly one fold's test role.
func Partition(n, k int) [][]int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	folds := make([][]int, k)
	size := n / k
	extra := n % k
	next := 0
	for i := 0; i < k; i++ {
		take := size
		if i < extra {
			take++
		}
		fold := make([]int, 0, take)
		for j := 0; j < take; j++ {
			fold = append(fold, next)
			next++
		}
		folds[i] = fold
	}
	return folds
}
