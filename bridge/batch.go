//go:build !ios && !android && (amd64 || arm64)

package bridge

// StringAt returns the string ref points at in tab, or "" if it is out of
// range.
func StringAt(tab []byte, ref StringRef) string {
	end := uint64(ref.Offset) + uint64(ref.Length)
	if ref.Length == 0 || end > uint64(len(tab)) {
		return ""
	}
	return string(tab[ref.Offset:end])
}

// batchStringGuess is the initial string table size per record.
const batchStringGuess = 64

// ReadBatch calls fill with a record buffer of count elements and a string
// table, growing the table once if fill reports it was too small. It returns
// the records written and the table they reference.
func ReadBatch[R any](count int, fill func(out []R, strtab []byte) (n, need int)) ([]R, []byte) {
	if count <= 0 {
		return nil, nil
	}
	out := make([]R, count)
	tab := make([]byte, count*batchStringGuess)
	n, need := fill(out, tab)
	if need > len(tab) {
		tab = make([]byte, need)
		n, _ = fill(out, tab)
	}
	if n > count {
		n = count
	}
	return out[:n], tab
}
