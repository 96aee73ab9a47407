package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/sendto/internal/model"
	"github.com/sendto/internal/plugin"
	"github.com/sendto/internal/store"
)

// ErrOutputExists is returned when creating an output under a taken name.
var ErrOutputExists = errors.New("output already exists")

// StoredOutput is a stored output decoded by its plugin.
type StoredOutput struct {
	Plugin string
	Output model.Output
	Record store.OutputRecord
}

// CreateOutput runs the plugin's create dialog and stores the result.
func (app *App) CreateOutput(ctx context.Context, pluginName string) (*model.Output, error) {
	p, err := app.plugins.Lookup(pluginName)
	if err != nil {
		return nil, err
	}

	out, err := p.CreateOutput(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := app.outputs.Load(ctx, out.Name); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrOutputExists, out.Name)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if err := app.outputs.Save(ctx, p.Name(), p.SerializeOutput(*out)); err != nil {
		return nil, err
	}
	app.logger.Info("output created", "name", out.Name, "plugin", p.Name())
	return out, nil
}

// EditOutput runs the plugin's edit dialog for name and stores the result,
// renaming the stored entry when the name changed.
func (app *App) EditOutput(ctx context.Context, name string) (*model.Output, error) {
	p, current, err := app.load(ctx, name)
	if err != nil {
		return nil, err
	}
	if !p.Editable() {
		return nil, fmt.Errorf("plugin %q outputs are not editable", p.Name())
	}

	out, err := p.EditOutput(ctx, *current)
	if err != nil {
		return nil, err
	}

	if out.Name != name {
		if _, err := app.outputs.Load(ctx, out.Name); err == nil {
			return nil, fmt.Errorf("%w: %q", ErrOutputExists, out.Name)
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	if err := app.outputs.Replace(ctx, name, p.Name(), p.SerializeOutput(*out)); err != nil {
		return nil, err
	}
	app.logger.Info("output updated", "name", out.Name, "previous", name)
	return out, nil
}

// Output returns the stored output called name.
func (app *App) Output(ctx context.Context, name string) (*StoredOutput, error) {
	rec, err := app.outputs.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return app.decode(*rec)
}

// Outputs returns every stored output ordered by name.
func (app *App) Outputs(ctx context.Context) ([]StoredOutput, error) {
	records, err := app.outputs.List(ctx)
	if err != nil {
		return nil, err
	}

	outputs := make([]StoredOutput, 0, len(records))
	for _, rec := range records {
		so, err := app.decode(rec)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, *so)
	}
	return outputs, nil
}

// DeleteOutput removes the output called name.
func (app *App) DeleteOutput(ctx context.Context, name string) error {
	if err := app.outputs.Delete(ctx, name); err != nil {
		return err
	}
	app.logger.Info("output deleted", "name", name)
	return nil
}

// ExportOutputs writes all outputs to w as YAML.
func (app *App) ExportOutputs(ctx context.Context, w io.Writer) (int, error) {
	return app.outputs.Export(ctx, w)
}

// ImportOutputs reads outputs written by ExportOutputs. Each entry must name a
// registered plugin and deserialize into a valid output.
func (app *App) ImportOutputs(ctx context.Context, r io.Reader) (int, error) {
	n, err := app.outputs.Import(ctx, r, func(pluginName string, values model.OutputValues) error {
		p, err := app.plugins.Lookup(pluginName)
		if err != nil {
			return err
		}
		out, err := p.DeserializeOutput(values)
		if err != nil {
			return err
		}
		return out.Validate()
	})
	if err != nil {
		return n, err
	}
	app.logger.Info("outputs imported", "count", n)
	return n, nil
}

// ErrOutputNotUpdated is returned with a successful result when the output
// carried back by the plugin could not be stored.
var ErrOutputNotUpdated = errors.New("updated output not stored")

// Send hands img to the plugin of the output called name. Plugin failures are
// in the result. An updated output in the result is stored before returning;
// if that fails the result is returned together with ErrOutputNotUpdated.
func (app *App) Send(ctx context.Context, name string, img image.Image) (plugin.SendResult, error) {
	p, out, err := app.load(ctx, name)
	if err != nil {
		return plugin.SendResult{}, err
	}

	result := p.Send(ctx, *out, img)
	if result.Result == plugin.Success && result.Output != nil {
		if err := app.outputs.Replace(ctx, name, p.Name(), p.SerializeOutput(*result.Output)); err != nil {
			app.logger.Error("send: storing updated output failed", "name", name, "err", err)
			return result, fmt.Errorf("%w: %q: %v", ErrOutputNotUpdated, name, err)
		}
	}
	return result, nil
}

func (app *App) load(ctx context.Context, name string) (plugin.Plugin, *model.Output, error) {
	so, err := app.Output(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	p, err := app.plugins.Lookup(so.Plugin)
	if err != nil {
		return nil, nil, err
	}
	return p, &so.Output, nil
}

func (app *App) decode(rec store.OutputRecord) (*StoredOutput, error) {
	p, err := app.plugins.Lookup(rec.Plugin)
	if err != nil {
		return nil, fmt.Errorf("output %q: %w", rec.Name, err)
	}
	out, err := p.DeserializeOutput(rec.Values)
	if err != nil {
		return nil, fmt.Errorf("output %q: %w", rec.Name, err)
	}
	return &StoredOutput{Plugin: p.Name(), Output: *out, Record: rec}, nil
}
