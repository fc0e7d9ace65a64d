// Package neat provides a Go implementation of NeuroEvolution of Augmenting Topologies (NEAT)
// with innovation-numbered genomes, explicit speciation and batched network evaluation.
//
// NEAT evolves both the weights and the structure of neural networks. Genes are aligned
// by innovation number for crossover and for the compatibility distance that groups
// genomes into species; species share fitness, age, and stagnate, and the population
// allocates offspring to them every generation.
//
// The library lives in the neat package and its subpackages:
//
//	neat             genomes, genome manager, species and the speciated population
//	neat/nn          compiled networks and the CPU and lane executors
//	neat/experiment  static tasks (xor, seq-1bit-Nel) and the run loop
//	store            run persistence in memory or SQLite
//
// Basic usage:
//
//	config, err := neat.LoadConfig("path/to/config")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//	exp := experiment.XOR()
//	pop, err := experiment.NewPopulation(config, exp, 1)
//	if err != nil {
//		log.Fatalf("Error creating population: %v", err)
//	}
//	for i := 0; i < 100; i++ {
//		if err := pop.NextGeneration(); err != nil {
//			log.Fatalf("Error running generation: %v", err)
//		}
//	}
package neat
