package wizard

import (
	"encoding/json"
	"fmt"
)

// Stage 向导阶段，严格线性推进
type Stage int

const (
	StageDetails Stage = iota
	StageSource
	StageInstanceType
	StageNetwork
	StageConfiguration
	// StageSubmitted 创建请求已被接受，向导关闭
	StageSubmitted
)

var stageNames = map[Stage]string{
	StageDetails:       "details",
	StageSource:        "source",
	StageInstanceType:  "instance_type",
	StageNetwork:       "network",
	StageConfiguration: "configuration",
	StageSubmitted:     "submitted",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

func (s Stage) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Stage) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for stage, n := range stageNames {
		if n == name {
			*s = stage
			return nil
		}
	}
	return fmt.Errorf("unknown wizard stage %q", name)
}

// ValidationError 当前阶段第一个未满足的规则
type ValidationError struct {
	Stage   Stage  `json:"stage"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("%s.%s: %s", e.Stage, e.Field, e.Message)
}

func invalid(stage Stage, field, message string) *ValidationError {
	return &ValidationError{Stage: stage, Field: field, Message: message}
}
