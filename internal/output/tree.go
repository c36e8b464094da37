package output

import (
	"fmt"
	"io"

	"github.com/temirov/llmctx/internal/types"
)

const (
	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "
	directorySuffix     = "/"
)

// IncludedTree returns a copy of root holding only included files and the
// directories that lead to them. The root itself is always kept.
func IncludedTree(root *types.TreeNode) *types.TreeNode {
	if root == nil {
		return nil
	}
	pruned, _ := pruneTree(root)
	if pruned == nil {
		pruned = &types.TreeNode{Name: root.Name, RelativePath: root.RelativePath, IsDirectory: true, Included: true}
	}
	return pruned
}

func pruneTree(node *types.TreeNode) (*types.TreeNode, bool) {
	if !node.Included {
		return nil, false
	}
	if !node.IsDirectory {
		copied := *node
		return &copied, true
	}
	copied := types.TreeNode{
		Name:         node.Name,
		RelativePath: node.RelativePath,
		IsDirectory:  true,
		Included:     true,
	}
	for _, child := range node.Children {
		if prunedChild, kept := pruneTree(child); kept {
			copied.Children = append(copied.Children, prunedChild)
			copied.SizeBytes += prunedChild.SizeBytes
		}
	}
	if len(copied.Children) == 0 {
		return nil, false
	}
	return &copied, true
}

// WriteTree renders node with box-drawing connectors. Directories are listed
// before files at each level and carry a trailing slash.
func WriteTree(writer io.Writer, node *types.TreeNode) error {
	if node == nil {
		return nil
	}
	if _, err := fmt.Fprintf(writer, "%s%s\n", node.Name, directorySuffix); err != nil {
		return err
	}
	return writeTreeChildren(writer, node, "")
}

func treeNodeLinePrefix(prefix string, isLast bool) (string, string) {
	if isLast {
		return prefix + treeLastConnector, prefix + treeLastPadding
	}
	return prefix + treeBranchConnector, prefix + treeBranchPadding
}

func writeTreeChildren(writer io.Writer, node *types.TreeNode, prefix string) error {
	ordered := directoriesFirst(node.Children)
	for index, child := range ordered {
		linePrefix, childPrefix := treeNodeLinePrefix(prefix, index == len(ordered)-1)
		label := child.Name
		if child.IsDirectory {
			label += directorySuffix
		}
		if _, err := fmt.Fprintf(writer, "%s%s\n", linePrefix, label); err != nil {
			return err
		}
		if child.IsDirectory {
			if err := writeTreeChildren(writer, child, childPrefix); err != nil {
				return err
			}
		}
	}
	return nil
}

func directoriesFirst(children []*types.TreeNode) []*types.TreeNode {
	ordered := make([]*types.TreeNode, 0, len(children))
	for _, child := range children {
		if child.IsDirectory {
			ordered = append(ordered, child)
		}
	}
	for _, child := range children {
		if !child.IsDirectory {
			ordered = append(ordered, child)
		}
	}
	return ordered
}
