package tracker

// forkTree tracks the blocks observed since the last finalized block.
// Each block has exactly one parent; children lists preserve discovery
// order. The parent back-reference makes the finalization walk O(path)
// instead of rescanning the children index per step.
type forkTree struct {
	children map[string][]string
	parentOf map[string]string
}

func newForkTree() *forkTree {
	return &forkTree{
		children: make(map[string][]string),
		parentOf: make(map[string]string),
	}
}

// add records blockHash under parent. Re-announced blocks keep their
// first parent and are not duplicated in the children list.
func (t *forkTree) add(blockHash, parent string) {
	if _, ok := t.parentOf[blockHash]; ok {
		return
	}
	t.children[parent] = append(t.children[parent], blockHash)
	t.parentOf[blockHash] = parent
}

// len reports the number of tracked blocks.
func (t *forkTree) len() int {
	return len(t.parentOf)
}

// pathFrom walks parent links from blockHash back toward stop (exclusive)
// and returns the traversed hashes oldest-first. When a parent link is
// missing before stop is reached, the partial path collected so far is
// returned with ok=false.
func (t *forkTree) pathFrom(blockHash, stop string) (path []string, ok bool) {
	cur := blockHash
	for cur != stop {
		path = append(path, cur)
		parent, found := t.parentOf[cur]
		if !found {
			reverse(path)
			return path, false
		}
		cur = parent
	}
	reverse(path)
	return path, true
}

// subtree returns blockHash and all its descendants.
func (t *forkTree) subtree(blockHash string) []string {
	out := []string{blockHash}
	for i := 0; i < len(out); i++ {
		out = append(out, t.children[out[i]]...)
	}
	return out
}

// siblingsOf returns the children of blockHash's parent excluding
// blockHash itself.
func (t *forkTree) siblingsOf(blockHash string) []string {
	parent, ok := t.parentOf[blockHash]
	if !ok {
		return nil
	}
	var siblings []string
	for _, child := range t.children[parent] {
		if child != blockHash {
			siblings = append(siblings, child)
		}
	}
	return siblings
}

// remove deletes a block's links from the tree.
func (t *forkTree) remove(blockHash string) {
	if parent, ok := t.parentOf[blockHash]; ok {
		kept := t.children[parent][:0]
		for _, child := range t.children[parent] {
			if child != blockHash {
				kept = append(kept, child)
			}
		}
		if len(kept) == 0 {
			delete(t.children, parent)
		} else {
			t.children[parent] = kept
		}
	}
	delete(t.parentOf, blockHash)
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
