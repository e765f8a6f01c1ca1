package nodelink_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/multilevel/pkg/graph"
	"github.com/matzehuels/multilevel/pkg/hierarchy"
	"github.com/matzehuels/multilevel/pkg/render/nodelink"
)

func ExampleToDOT() {
	g := graph.New(nil)
	api, db := &graph.Node{ID: "api"}, &graph.Node{ID: "db"}
	_ = g.AddNode(api)
	_ = g.AddNode(db)
	_ = g.AddEdge(graph.Edge{From: api, To: db})

	backend := &graph.Node{ID: "backend"}
	h, _ := hierarchy.Build(g, hierarchy.Table{{
		{Node: api, Parent: backend},
		{Node: db, Parent: backend},
	}})

	dot, _ := nodelink.ToDOT(h, 0, nodelink.Options{})
	fmt.Println(strings.Contains(dot, `subgraph "cluster_0"`))
	fmt.Println(strings.Contains(dot, `"api" -> "db";`))
	// Output:
	// true
	// true
}
