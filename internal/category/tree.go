// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package category

import (
	"sort"

	"github.com/google/uuid"

	"omexcatalog/internal/models"
)

// rootKey groups root categories in a children index.
var rootKey = uuid.Nil

// sortCategories orders a level by priority, then name, then slug.
func sortCategories(cats []models.Category) {
	sort.SliceStable(cats, func(i, j int) bool {
		a, b := cats[i], cats[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Slug < b.Slug
	})
}

// childrenIndex groups a flat list by parent. Categories whose parent is not
// part of the list are filed under rootKey, so a subset still forms a forest.
func childrenIndex(flat []models.Category) map[uuid.UUID][]models.Category {
	present := make(map[uuid.UUID]bool, len(flat))
	for _, c := range flat {
		present[c.ID] = true
	}
	index := make(map[uuid.UUID][]models.Category)
	for _, c := range flat {
		key := rootKey
		if c.ParentID != nil && present[*c.ParentID] && *c.ParentID != c.ID {
			key = *c.ParentID
		}
		c.Children = nil
		index[key] = append(index[key], c)
	}
	for k := range index {
		sortCategories(index[k])
	}
	return index
}

// buildTree nests a flat list into a forest. Children of each node are
// sorted by priority; childless nodes carry no Children slice.
func buildTree(flat []models.Category) []models.Category {
	index := childrenIndex(flat)
	visited := make(map[uuid.UUID]bool, len(flat))
	return attachChildren(index, rootKey, 0, visited)
}

// attachChildren builds one level of the tree. visited stops a malformed
// list from recursing forever.
func attachChildren(index map[uuid.UUID][]models.Category, parent uuid.UUID, depth int, visited map[uuid.UUID]bool) []models.Category {
	level := index[parent]
	if len(level) == 0 {
		return nil
	}
	result := make([]models.Category, 0, len(level))
	for _, c := range level {
		if visited[c.ID] {
			continue
		}
		visited[c.ID] = true
		c.Depth = depth
		c.Children = attachChildren(index, c.ID, depth+1, visited)
		result = append(result, c)
	}
	return result
}

// countNodes returns the number of nodes in a forest, nested ones included.
func countNodes(tree []models.Category) int {
	n := 0
	for _, c := range tree {
		n += 1 + countNodes(c.Children)
	}
	return n
}

// flattenTree walks a category tree depth-first, appending to result.
// Children slices are stripped from the appended copies.
func flattenTree(cats []models.Category, result *[]models.Category) {
	for _, c := range cats {
		children := c.Children
		c.Children = nil
		*result = append(*result, c)
		if len(children) > 0 {
			flattenTree(children, result)
		}
	}
}

// breadcrumbFrom walks parent links in byID from id up to its root and
// returns the path root first. A missing id yields an empty path.
func breadcrumbFrom(byID map[uuid.UUID]models.Category, id uuid.UUID) []models.Category {
	var path []models.Category
	seen := make(map[uuid.UUID]bool)
	current := &id
	for current != nil && !seen[*current] {
		c, ok := byID[*current]
		if !ok {
			break
		}
		seen[c.ID] = true
		c.Children = nil
		path = append(path, c)
		current = c.ParentID
	}
	reverse(path)
	return path
}

// descendantsFrom collects everything below id depth-first, children in
// priority order.
func descendantsFrom(index map[uuid.UUID][]models.Category, id uuid.UUID) []models.Category {
	var result []models.Category
	seen := map[uuid.UUID]bool{id: true}
	var walk func(parent uuid.UUID)
	walk = func(parent uuid.UUID) {
		for _, c := range index[parent] {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			result = append(result, c)
			walk(c.ID)
		}
	}
	walk(id)
	return result
}

// OrderDescendants arranges an unordered set of descendants of root
// depth-first with siblings in priority order. Storage engines that collect
// descendants in one query use it to match the generic walk.
func OrderDescendants(root uuid.UUID, flat []models.Category) []models.Category {
	return descendantsFrom(strictChildrenIndex(flat), root)
}

// strictChildrenIndex groups by the stored parent_id only; unlike
// childrenIndex it never promotes anything to root.
func strictChildrenIndex(flat []models.Category) map[uuid.UUID][]models.Category {
	index := make(map[uuid.UUID][]models.Category)
	for _, c := range flat {
		key := rootKey
		if c.ParentID != nil {
			key = *c.ParentID
		}
		c.Children = nil
		index[key] = append(index[key], c)
	}
	for k := range index {
		sortCategories(index[k])
	}
	return index
}

func reverse(cats []models.Category) {
	for i, j := 0, len(cats)-1; i < j; i, j = i+1, j-1 {
		cats[i], cats[j] = cats[j], cats[i]
	}
}
