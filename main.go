package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"gonet/dataset"
	"gonet/neuralnet"
)

var (
	dataPath   = flag.String("data", "", "CSV file of training examples")
	inputs     = flag.Int("inputs", 0, "number of input columns (outputs follow them)")
	classes    = flag.Int("classes", 0, "if set, the last column is a class label one-hot encoded into this many outputs")
	hidden     = flag.String("hidden", "3", "hidden layer sizes, e.g. \"5 4\"")
	activation = flag.String("activation", neuralnet.DefaultActivation, "activation: hyperbolic or logistic")
	iterations = flag.Int("iterations", neuralnet.DefaultMaxIterations, "maximum training epochs")
	threshold  = flag.Float64("threshold", neuralnet.DefaultErrorThreshold, "stop once the mean squared error reaches this")
	lr         = flag.Float64("lr", neuralnet.DefaultLearningRate, "learning rate")
	momentum   = flag.Float64("momentum", neuralnet.DefaultMomentum, "momentum")
	logEvery   = flag.Int("log", 0, "report progress every N epochs (0 disables)")
	seed       = flag.Int64("seed", 0, "random seed for the initial weights (0 picks one)")
	loadPath   = flag.String("load", "", "resume from a saved network state")
	savePath   = flag.String("save", "", "write the trained network state to this file")
)

func loadExamples() ([]neuralnet.Example, error) {
	file, err := os.Open(*dataPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if *classes > 0 {
		return dataset.ReadLabeledCSV(file, *classes)
	}
	return dataset.ReadCSV(file, *inputs)
}

func buildNetwork() (*neuralnet.NeuralNetwork, error) {
	if *loadPath != "" {
		nn, err := neuralnet.LoadFile(*loadPath)
		if err != nil {
			return nil, err
		}
		nn.OnProgress(neuralnet.LogProgress(os.Stdout))
		return nn, nil
	}

	layers, err := neuralnet.ParseHiddenLayers(*hidden)
	if err != nil {
		return nil, err
	}
	cfg := neuralnet.Config{
		HiddenLayers:   layers,
		MaxIterations:  *iterations,
		ErrorThreshold: *threshold,
		Activation:     *activation,
		LearningRate:   *lr,
		Momentum:       *momentum,
		LogInterval:    *logEvery,
		Progress:       neuralnet.LogProgress(os.Stdout),
	}
	if *seed != 0 {
		cfg.Rand = rand.New(rand.NewSource(*seed))
	}
	return neuralnet.NewNeuralNetwork(cfg)
}

func main() {
	flag.Parse()
	if *dataPath == "" {
		fmt.Println("Missing -data")
		flag.Usage()
		os.Exit(2)
	}

	examples, err := loadExamples()
	if err != nil {
		fmt.Println("Error loading data:", err)
		os.Exit(1)
	}
	nn, err := buildNetwork()
	if err != nil {
		fmt.Println("Error building network:", err)
		os.Exit(1)
	}

	res, err := nn.Train(examples...)
	if err != nil {
		fmt.Println("Error training:", err)
		os.Exit(1)
	}
	fmt.Printf("Trained %d epochs, mse=%.6f, layers=%v\n", res.Epochs, res.MSE, nn.Layers())

	stats, err := nn.Test(examples...)
	if err != nil {
		fmt.Println("Error testing:", err)
		os.Exit(1)
	}
	for i, r := range stats.Results {
		if i == 10 {
			fmt.Printf("... %d more\n", len(stats.Results)-i)
			break
		}
		fmt.Printf("%v -> %.4f (want %v, lms=%.6f)\n", examples[i].Input, r.Output, r.DesiredOutput, r.LMS)
	}
	fmt.Printf("Mean absolute error: %.6f\n", stats.MSE)

	if *savePath != "" {
		if err := neuralnet.SaveFile(*savePath, nn); err != nil {
			fmt.Println("Error saving network:", err)
			os.Exit(1)
		}
		fmt.Printf("Network saved as %s\n", *savePath)
	}
}
