// Package backend 实现对后端计算代理服务的 HTTP 客户端
// 后端是 VM 状态的唯一可信来源，客户端不做任何自动重试：每次调用恰好发出一个请求
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jimyag/cloudconsole/internal/console/entity"
	"github.com/rs/zerolog"
)

// Config 客户端配置
type Config struct {
	BaseURL string
	Token   string
	// Timeout 单个请求的超时时间；创建等长耗时操作需要分钟级
	Timeout time.Duration
}

// Client 后端 HTTP 客户端
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient 创建后端客户端
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse backend base URL: %w", err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// Do 发送一个 JSON 请求，result 非 nil 时解析响应体
func (c *Client) Do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	fullURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Backend request finished")

	if resp.StatusCode >= 300 {
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Method:     method,
			URL:        fullURL,
			Body:       string(respBody),
			Detail:     extractDetail(respBody),
		}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// ==================== VM 命令 ====================

// CreateVM POST create-vm
func (c *Client) CreateVM(ctx context.Context, req *entity.CreateVMRequest) (*entity.CreateVMResponse, error) {
	var resp entity.CreateVMResponse
	if err := c.Do(ctx, http.MethodPost, "/create-vm", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ControlResource POST control-resource，启动或停止 VM
func (c *Client) ControlResource(ctx context.Context, vmID string, action entity.ControlAction) error {
	return c.Do(ctx, http.MethodPost, "/control-resource", &entity.ControlResourceRequest{
		ResourceID:   vmID,
		ResourceType: "vm",
		Action:       action,
	}, nil)
}

// DeleteVM DELETE vms/{id}
func (c *Client) DeleteVM(ctx context.Context, vmID string) error {
	return c.Do(ctx, http.MethodDelete, "/vms/"+url.PathEscape(vmID), nil, nil)
}

// Resize 提交 resize，不自动确认
func (c *Client) Resize(ctx context.Context, vmID, flavorID string) error {
	return c.Do(ctx, http.MethodPost, "/vms/"+url.PathEscape(vmID)+"/resize", &entity.ResizeRequest{
		NewFlavorID: flavorID,
		Confirm:     false,
	}, nil)
}

// ConfirmResize 确认 resize
func (c *Client) ConfirmResize(ctx context.Context, vmID string) error {
	return c.Do(ctx, http.MethodPost, "/vms/"+url.PathEscape(vmID)+"/confirm-resize", nil, nil)
}

// RevertResize 回退 resize
func (c *Client) RevertResize(ctx context.Context, vmID string) error {
	return c.Do(ctx, http.MethodPost, "/vms/"+url.PathEscape(vmID)+"/revert-resize", nil, nil)
}

// CreateSnapshot 创建实例快照
func (c *Client) CreateSnapshot(ctx context.Context, vmID, name string) error {
	return c.Do(ctx, http.MethodPost, "/vms/"+url.PathEscape(vmID)+"/snapshots", &entity.CreateSnapshotRequest{Name: name}, nil)
}

// RestoreSnapshot 从实例快照恢复
func (c *Client) RestoreSnapshot(ctx context.Context, vmID, snapshotID string) error {
	return c.Do(ctx, http.MethodPost, "/vms/"+url.PathEscape(vmID)+"/restore", &entity.RestoreSnapshotRequest{SnapshotID: snapshotID}, nil)
}

// ==================== 查询 ====================

// Overview 获取完整的 VM 投影
func (c *Client) Overview(ctx context.Context) ([]entity.VirtualMachine, error) {
	var resp entity.VMOverview
	if err := c.Do(ctx, http.MethodGet, "/vm-overview", nil, &resp); err != nil {
		return nil, err
	}
	return resp.VMs, nil
}

func (c *Client) ListFlavors(ctx context.Context) ([]entity.Flavor, error) {
	return list[entity.Flavor](ctx, c, "/flavors")
}

func (c *Client) ListImages(ctx context.Context) ([]entity.Image, error) {
	return list[entity.Image](ctx, c, "/images")
}

func (c *Client) ListInstanceSnapshots(ctx context.Context) ([]entity.InstanceSnapshot, error) {
	return list[entity.InstanceSnapshot](ctx, c, "/instance-snapshots")
}

func (c *Client) ListVolumes(ctx context.Context) ([]entity.Volume, error) {
	return list[entity.Volume](ctx, c, "/volumes")
}

func (c *Client) ListVolumeSnapshots(ctx context.Context) ([]entity.VolumeSnapshot, error) {
	return list[entity.VolumeSnapshot](ctx, c, "/volume-snapshots")
}

func (c *Client) ListNetworks(ctx context.Context) ([]entity.Network, error) {
	return list[entity.Network](ctx, c, "/networks")
}

func (c *Client) ListAvailabilityZones(ctx context.Context) ([]entity.AvailabilityZone, error) {
	return list[entity.AvailabilityZone](ctx, c, "/availability-zones")
}

func (c *Client) ListTenants(ctx context.Context) ([]entity.Tenant, error) {
	return list[entity.Tenant](ctx, c, "/tenants")
}

// ListSystems 列出租户下的业务系统
func (c *Client) ListSystems(ctx context.Context, tenantID string) ([]entity.System, error) {
	return list[entity.System](ctx, c, "/tenants/"+url.PathEscape(tenantID)+"/systems")
}

// list 拉取一个 JSON 数组
func list[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var out []T
	if err := c.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
