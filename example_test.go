package deepstock_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/deepstock"
	"github.com/aretw0/deepstock/pkg/adapters/memory"
	"github.com/aretw0/deepstock/pkg/domain"
	"github.com/aretw0/deepstock/pkg/ports"
	"github.com/aretw0/deepstock/pkg/render"
)

// ExampleNew_memory runs a research request against an in-memory store and a canned generator.
func ExampleNew_memory() {
	canned := ports.GeneratorFunc(func(ctx context.Context, prompt string, cred domain.Credential) (string, error) {
		return "# Apple Inc.\n## 1. Executive Summary\n- **Buy** rating\n- Strong <b>moat</b>", nil
	})

	ctx := context.Background()
	eng, err := deepstock.New(ctx, memory.NewStore(),
		deepstock.WithGenerator(canned),
		deepstock.WithFallbackCredential("demo-key"),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	st, err := eng.Research(ctx, "AAPL")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(st.Phase)
	fmt.Print(render.PlainText(st.Blocks))
	// Output:
	// succeeded
	// Apple Inc.
	//
	// 1. Executive Summary
	//
	// - Buy rating
	// - Strong <b>moat</b>
}
