package spectral_test

import (
	"context"
	"fmt"

	spectral "github.com/katalvlaran/lvlath-spectral"
	"github.com/katalvlaran/lvlath-spectral/comm"
	"github.com/katalvlaran/lvlath-spectral/dgraph"
)

// Two 4-cliques joined by one edge, split over two ranks: the Fiedler vector
// separates the cliques.
func ExamplePartitioner_Bisect() {
	p := spectral.New(spectral.WithSeed(1))
	err := comm.Run(context.Background(), 2, func(ctx context.Context, c comm.Communicator) error {
		g, err := dgraph.Shard(c.Rank(), 2, 8, dgraph.Barbell(4))
		if err != nil {
			return err
		}
		_, err = p.Bisect(ctx, g, c)

		return err
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("part sizes:", p.LastReport().PartSizes)
	// Output: part sizes: [4 4]
}
