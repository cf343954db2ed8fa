package scene

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// Stats builds a tabular summary of the registry and acceleration structures
func (s *Scene) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Asset", "Count"})

	kinds := make(map[material.Kind]int)
	for _, m := range s.Materials {
		kinds[material.KindOf(m)]++
	}

	objectBVH := s.bvh.Stats()
	var meshBVH core.BVHStats
	for _, mesh := range s.Meshes {
		st := mesh.Accel().Stats()
		meshBVH.TotalNodes += st.TotalNodes
		meshBVH.LeafNodes += st.LeafNodes
		meshBVH.MaxDepth = max(meshBVH.MaxDepth, st.MaxDepth)
		meshBVH.MaxLeafSize = max(meshBVH.MaxLeafSize, st.MaxLeafSize)
	}

	table.Append([]string{"Geometry", "---", fmt.Sprintf("%d", len(s.Meshes))})
	table.Append([]string{"", "Objects", fmt.Sprintf("%d", len(s.Objects))})
	table.Append([]string{"", "Triangles", fmt.Sprintf("%d", s.TriangleCount())})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Materials", "---", fmt.Sprintf("%d", len(s.Materials))})
	for _, kind := range []material.Kind{material.KindDiffuse, material.KindMetallic, material.KindGlass, material.KindEmissive} {
		table.Append([]string{"", string(kind), fmt.Sprintf("%d", kinds[kind])})
	}
	table.Append([]string{"", "Textures", fmt.Sprintf("%d", len(s.Textures))})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Lights", "---", fmt.Sprintf("%d", len(s.Lights))})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Object BVH", "Nodes", fmt.Sprintf("%d", objectBVH.TotalNodes)})
	table.Append([]string{"", "Leaves", fmt.Sprintf("%d", objectBVH.LeafNodes)})
	table.Append([]string{"", "Max depth", fmt.Sprintf("%d", objectBVH.MaxDepth)})
	table.Append([]string{"", "Max leaf size", fmt.Sprintf("%d", objectBVH.MaxLeafSize)})
	table.Append([]string{"Mesh BVHs", "Nodes", fmt.Sprintf("%d", meshBVH.TotalNodes)})
	table.Append([]string{"", "Leaves", fmt.Sprintf("%d", meshBVH.LeafNodes)})
	table.Append([]string{"", "Max depth", fmt.Sprintf("%d", meshBVH.MaxDepth)})
	table.Append([]string{"", "Max leaf size", fmt.Sprintf("%d", meshBVH.MaxLeafSize)})
	table.SetFooter([]string{"Scene", s.Name, ""})

	table.Render()
	return buf.String()
}
