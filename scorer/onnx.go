package scorer

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/wgdzlh/tilepred/config"
	"github.com/wgdzlh/tilepred/log"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
)

// ONNXModel scores patches with an ONNX Runtime session whose input and
// output tensors are bound once at a fixed shape. Calls are serialised: the
// session and its device are a single shared resource.
type ONNXModel struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	inShape      [4]int
	outShape     [4]int
	device       config.Device
	ownsEnv      bool
}

// NewONNXModel loads mc.Path for tensors of inShape -> outShape on device.
func NewONNXModel(mc config.ModelConfig, device config.Device, inShape, outShape [4]int) (*ONNXModel, error) {
	if mc.Path == "" {
		return nil, ErrMissingModelPath
	}
	m := &ONNXModel{inShape: inShape, outShape: outShape, device: device}
	if !ort.IsInitialized() {
		if mc.LibraryPath != "" {
			ort.SetSharedLibraryPath(mc.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
		m.ownsEnv = true
	}

	options, err := m.sessionOptions(mc.DeviceID)
	if err != nil {
		m.Close()
		return nil, err
	}
	defer options.Destroy()

	if m.inputTensor, err = ort.NewEmptyTensor[float32](toShape(inShape)); err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	if m.outputTensor, err = ort.NewEmptyTensor[float32](toShape(outShape)); err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	m.session, err = ort.NewAdvancedSession(mc.Path,
		[]string{mc.InputName}, []string{mc.OutputName},
		[]ort.ArbitraryTensor{m.inputTensor}, []ort.ArbitraryTensor{m.outputTensor},
		options)
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	log.Info("ONNXModel:session ready", zap.String("model", mc.Path), zap.String("device", string(device)),
		zap.Ints("in", inShape[:]), zap.Ints("out", outShape[:]))
	return m, nil
}

func (m *ONNXModel) sessionOptions(deviceID int) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	switch m.device {
	case config.DeviceCPU:
	case config.DeviceCUDA:
		cudaOptions, err := ort.NewCUDAProviderOptions()
		if err != nil {
			options.Destroy()
			return nil, fmt.Errorf("failed to create CUDA options: %w", err)
		}
		defer cudaOptions.Destroy()
		if err = cudaOptions.Update(map[string]string{"device_id": strconv.Itoa(deviceID)}); err != nil {
			options.Destroy()
			return nil, fmt.Errorf("failed to set CUDA device: %w", err)
		}
		if err = options.AppendExecutionProviderCUDA(cudaOptions); err != nil {
			options.Destroy()
			return nil, fmt.Errorf("failed to enable CUDA provider: %w", err)
		}
	default:
		options.Destroy()
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDevice, m.device)
	}
	return options, nil
}

func toShape(s [4]int) ort.Shape {
	return ort.NewShape(int64(s[0]), int64(s[1]), int64(s[2]), int64(s[3]))
}

func (m *ONNXModel) Device() config.Device {
	return m.device
}

func (m *ONNXModel) Score(ctx context.Context, in *Tensor) (*Tensor, error) {
	if in.Shape != m.inShape {
		return nil, fmt.Errorf("%w: session takes %v, got %v", ErrShapeMismatch, m.inShape, in.Shape)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, ErrModelNotReady
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	copy(m.inputTensor.GetData(), in.Data)
	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	out := &Tensor{Shape: m.outShape}
	out.Data = append([]float32(nil), m.outputTensor.GetData()...)
	return out, nil
}

func (m *ONNXModel) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inputTensor != nil {
		m.inputTensor.Destroy()
		m.inputTensor = nil
	}
	if m.outputTensor != nil {
		m.outputTensor.Destroy()
		m.outputTensor = nil
	}
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
	if m.ownsEnv {
		ort.DestroyEnvironment()
		m.ownsEnv = false
	}
}
