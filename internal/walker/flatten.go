package walker

import "github.com/temirov/llmctx/internal/types"

// flatten lists included files and excluded entries in pre-order, which is
// the order the tree renders in.
func flatten(root *types.TreeNode) ([]string, []types.ExcludedEntry) {
	var included []string
	var excluded []types.ExcludedEntry
	stack := []*types.TreeNode{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !node.Included {
			excluded = append(excluded, types.ExcludedEntry{
				RelativePath: node.RelativePath,
				IsDirectory:  node.IsDirectory,
				Reason:       node.Reason,
			})
			continue
		}
		if !node.IsDirectory {
			included = append(included, node.RelativePath)
			continue
		}
		for index := len(node.Children) - 1; index >= 0; index-- {
			stack = append(stack, node.Children[index])
		}
	}
	return included, excluded
}
